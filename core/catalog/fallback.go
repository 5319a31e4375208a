package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"soundfolio/model"
)

// fallbackArrayEnd marks the closing bracket of the embedded tracks array.
const fallbackArrayEnd = "      ];"

var (
	tsPattern      = regexp.MustCompile(`const __ts__ = '\d+';`)
	cacheBustRegex = regexp.MustCompile(`music\.js\?v=\d+`)

	// now is replaced in tests.
	now = time.Now
)

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// FormatFallbackEntry renders track as a single JS object literal line.
func FormatFallbackEntry(t model.Track) string {
	tags, _ := json.Marshal(t.Tags)
	if t.Tags == nil {
		tags = []byte("[]")
	}

	srcs := make([]string, 0, len(t.Sources))
	for _, s := range t.Sources {
		srcs = append(srcs, fmt.Sprintf("{ url:%s, type:%s }", quote(s.URL), quote(s.Type)))
	}
	sources := "[]"
	if len(srcs) > 0 {
		sources = "[ " + strings.Join(srcs, ", ") + " ]"
	}

	desc := func(lang string) string { return quote(t.Desc.ByLang[lang]) }

	return fmt.Sprintf(`        { id:%s, title:%s, artist:%s, cover:%s, tags:%s, length: %d, date:%s, year: %d, desc:{ pl:%s, en:%s, nl:%s }, sources:%s }`,
		quote(t.ID), quote(t.Title), quote(t.Artist), quote(t.Cover), tags,
		int(t.Length), quote(t.Date), t.Year,
		desc("pl"), desc("en"), desc("nl"), sources)
}

// stamp refreshes the build timestamp and cache-busting query strings.
func stamp(content string) (string, string) {
	ts := now().Format("20060102")
	content = tsPattern.ReplaceAllString(content, fmt.Sprintf("const __ts__ = '%s';", ts))
	content = cacheBustRegex.ReplaceAllString(content, "music.js?v="+ts)
	return content, ts
}

// AppendToFallback inserts track at the end of the embedded array in the JS
// file at path and returns the timestamp written.
func AppendToFallback(path string, track model.Track) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read fallback %s: %w", path, err)
	}
	content := string(data)

	at := strings.LastIndex(content, fallbackArrayEnd)
	if at < 0 {
		return "", errors.New("could not find the fallback tracks array")
	}

	updated := content[:at] + ",\n" + FormatFallbackEntry(track) + "\n" + content[at:]
	updated, ts := stamp(updated)
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return "", fmt.Errorf("write fallback %s: %w", path, err)
	}
	return ts, nil
}

// RemoveFromFallback drops the object literal whose id is id. It scans from
// the matching line until the braces balance again.
func RemoveFromFallback(path, id string) (bool, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, "", fmt.Errorf("read fallback %s: %w", path, err)
	}

	markers := []string{
		"id:" + quote(id),
		"id:'" + id + "'",
	}
	matches := func(line string) bool {
		for _, m := range markers {
			if strings.Contains(line, m) {
				return true
			}
		}
		return false
	}

	lines := strings.Split(string(data), "\n")
	kept := make([]string, 0, len(lines))
	removed := false
	for i := 0; i < len(lines); i++ {
		if !matches(lines[i]) {
			kept = append(kept, lines[i])
			continue
		}
		removed = true
		depth := 0
		j := i
		for ; j < len(lines); j++ {
			depth += strings.Count(lines[j], "{") - strings.Count(lines[j], "}")
			if depth <= 0 && strings.Contains(lines[j], "}") {
				break
			}
		}
		if j+1 < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[j+1]), ",") {
			j++
		}
		i = j
	}

	if !removed {
		return false, "", nil
	}

	// The entry may have been the last element; drop the comma it leaves
	// dangling before the closing bracket.
	for k := len(kept) - 1; k >= 0; k-- {
		if strings.HasPrefix(kept[k], fallbackArrayEnd) && k > 0 {
			kept[k-1] = strings.TrimRight(kept[k-1], ",")
			break
		}
	}

	updated, ts := stamp(strings.Join(kept, "\n"))
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return true, "", fmt.Errorf("write fallback %s: %w", path, err)
	}
	return true, ts, nil
}

// StampPage refreshes the music.js cache-busting stamp in an HTML page. A
// missing page is not an error.
func StampPage(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read page %s: %w", path, err)
	}
	updated, _ := stamp(string(data))
	if updated == string(data) {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return false, fmt.Errorf("write page %s: %w", path, err)
	}
	return true, nil
}
