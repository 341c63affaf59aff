package tree

// ESTree node kinds referenced by the miner.
const (
	Program                 = "Program"
	ExpressionStatement     = "ExpressionStatement"
	BlockStatement          = "BlockStatement"
	EmptyStatement          = "EmptyStatement"
	ReturnStatement         = "ReturnStatement"
	ThrowStatement          = "ThrowStatement"
	BreakStatement          = "BreakStatement"
	ContinueStatement       = "ContinueStatement"
	TryStatement            = "TryStatement"
	CatchClause             = "CatchClause"
	LabeledStatement        = "LabeledStatement"
	VariableDeclaration     = "VariableDeclaration"
	VariableDeclarator      = "VariableDeclarator"
	ForStatement            = "ForStatement"
	ForInStatement          = "ForInStatement"
	ForOfStatement          = "ForOfStatement"
	WhileStatement          = "WhileStatement"
	DoWhileStatement        = "DoWhileStatement"
	IfStatement             = "IfStatement"
	SwitchStatement         = "SwitchStatement"
	SwitchCase              = "SwitchCase"
	FunctionDeclaration     = "FunctionDeclaration"
	FunctionExpression      = "FunctionExpression"
	ArrowFunctionExpression = "ArrowFunctionExpression"
	ClassDeclaration        = "ClassDeclaration"
	ClassBody               = "ClassBody"
	MethodDefinition        = "MethodDefinition"
	CallExpression          = "CallExpression"
	NewExpression           = "NewExpression"
	MemberExpression        = "MemberExpression"
	AssignmentExpression    = "AssignmentExpression"
	BinaryExpression        = "BinaryExpression"
	LogicalExpression       = "LogicalExpression"
	UnaryExpression         = "UnaryExpression"
	UpdateExpression        = "UpdateExpression"
	ConditionalExpression   = "ConditionalExpression"
	SequenceExpression      = "SequenceExpression"
	ArrayExpression         = "ArrayExpression"
	ObjectExpression        = "ObjectExpression"
	Property                = "Property"
	SpreadElement           = "SpreadElement"
	AwaitExpression         = "AwaitExpression"
	ThisExpression          = "ThisExpression"
	TemplateLiteral         = "TemplateLiteral"
	TemplateElement         = "TemplateElement"
	Identifier              = "Identifier"
	Literal                 = "Literal"
)
