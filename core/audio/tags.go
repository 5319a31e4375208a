package audio

import (
	"context"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/bogem/id3v2"

	"soundfolio/core/utils"
)

// FileTags is the metadata the tracks CLI can pre-fill from an audio file.
type FileTags struct {
	Title  string
	Artist string
	Year   int
}

// ReadTags reads ID3 tags from a local file or an http(s) URL.
func ReadTags(ctx context.Context, src string) (*FileTags, error) {
	local := src
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		tmp, err := utils.DownloadTemp(ctx, src, "tags-*"+path.Ext(src))
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmp)
		local = tmp
	}

	tag, err := id3v2.Open(local, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read ID3 tags: %w", err)
	}
	defer tag.Close()

	ft := &FileTags{
		Title:  strings.TrimSpace(tag.Title()),
		Artist: strings.TrimSpace(tag.Artist()),
	}
	if y := strings.TrimSpace(tag.Year()); len(y) >= 4 {
		ft.Year, _ = strconv.Atoi(y[:4])
	}
	return ft, nil
}
