package report

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Link is an image link in the README.
type Link struct {
	Alt string
	URL string
}

func (l Link) markdown() string {
	return fmt.Sprintf("![%s](%s)", l.Alt, l.URL)
}

// RewriteReadme replaces the line of every image whose alt text matches a
// link, links without a matching line are appended in order.
func RewriteReadme(contents string, links []Link) string {
	lines := strings.Split(contents, "\n")
	trailingNewline := len(lines) > 0 && lines[len(lines)-1] == ""
	if trailingNewline {
		lines = lines[:len(lines)-1]
	}

	for _, link := range links {
		pattern := regexp.MustCompile(`^\s*!\[` + regexp.QuoteMeta(link.Alt) + `\]\([^)]*\)\s*$`)
		replaced := false
		for i, line := range lines {
			if pattern.MatchString(line) {
				lines[i] = link.markdown()
				replaced = true
			}
		}
		if !replaced {
			lines = append(lines, link.markdown())
		}
	}

	return strings.Join(lines, "\n") + "\n"
}

// UpdateReadme rewrites the image links of the README at path, creating it
// when it does not exist.
func UpdateReadme(path string, links []Link) error {
	contents, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, []byte(RewriteReadme(string(contents), links)), mode)
}
