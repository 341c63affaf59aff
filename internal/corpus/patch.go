package corpus

import (
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// parsePatch turns every hunk of a unified diff into a pair: the slow side
// is the hunk's pre-image (context and removed lines), the fast side its
// post-image (context and added lines).
func parsePatch(data []byte, name string) ([]Pair, error) {
	fileDiffs, err := godiff.ParseMultiFileDiff(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	var pairs []Pair
	n := 0
	for _, fd := range fileDiffs {
		for _, hunk := range fd.Hunks {
			n++
			slow, fast := splitHunk(hunk)
			if slow == fast {
				continue
			}
			pairs = append(pairs, Pair{
				ID:   fmt.Sprintf("%s#%d", hunkOwner(fd, name), n),
				Slow: slow,
				Fast: fast,
			})
		}
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("diff contains no changed hunks")
	}
	return pairs, nil
}

func splitHunk(hunk *godiff.Hunk) (slow, fast string) {
	var before, after strings.Builder
	lines := strings.Split(strings.TrimSuffix(string(hunk.Body), "\n"), "\n")
	for _, line := range lines {
		if len(line) == 0 {
			before.WriteString("\n")
			after.WriteString("\n")
			continue
		}
		switch line[0] {
		case '+':
			after.WriteString(line[1:] + "\n")
		case '-':
			before.WriteString(line[1:] + "\n")
		case ' ':
			before.WriteString(line[1:] + "\n")
			after.WriteString(line[1:] + "\n")
		case '\\':
			// "\ No newline at end of file"
		}
	}
	return before.String(), after.String()
}

// hunkOwner names a hunk after the file it changes, falling back to the
// corpus name for diffs without file headers.
func hunkOwner(fd *godiff.FileDiff, fallback string) string {
	for _, name := range []string{fd.NewName, fd.OrigName} {
		if p := cleanPath(name); p != "" && p != "/dev/null" {
			return p
		}
	}
	return fallback
}

// cleanPath removes the a/ or b/ prefix from git diff paths.
func cleanPath(path string) string {
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}
