package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"soundfolio/cache"
	"soundfolio/core/audio"
	"soundfolio/core/catalog"
	"soundfolio/core/durations"
	"soundfolio/core/utils"
	"soundfolio/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen).SprintFunc()
	warnColor = color.New(color.FgYellow).SprintFunc()
	errColor  = color.New(color.FgRed).SprintFunc()
	dimColor  = color.New(color.Faint).SprintFunc()
)

var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "Manage the track catalog",
	Long:  `List, add and remove tracks, and probe missing lengths. Changes are written to both the JSON catalog and its JS fallback.`,
}

func catalogStore() *catalog.Store {
	return &catalog.Store{Path: cfg.CatalogSource, FallbackPath: cfg.FallbackJSPath}
}

// ---- list ----

var tracksListCmd = &cobra.Command{
	Use:   "list [tag]",
	Short: "List tracks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.NewLoader(cfg.CatalogSource, nil).Load(cmd.Context())
		if err != nil {
			return err
		}
		q := catalog.Query{Tag: catalog.TagAll}
		if len(args) == 1 {
			q.Tag = args[0]
		}

		view := catalog.Filter(cat, q)
		for n, i := range view {
			t, _ := cat.Track(i)
			length := utils.DurationPlaceholder
			if t.HasKnownLength() {
				length = utils.FormatTime(t.Length)
			}
			fmt.Printf("%3d. %-28s %-20s %5s  %s\n", n+1, t.Title, t.Artist, length, dimColor(t.ID))
		}
		fmt.Printf("\n%d / %d tracks\n", len(view), cat.Len())
		fmt.Println("tags:", strings.Join(append([]string{catalog.TagAll}, catalog.Tags(cat)...), ", "))
		return nil
	},
}

// ---- add ----

var addOpts struct {
	catalog.TrackInput
	descPL, descEN, descNL string
	fromFile               string
	htmlPath               string
}

var tracksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a track",
	Example: `  soundfolio tracks add --title "Night Drive" --artist "Me" --audio assets/audio/night.mp3 --tags ambient,synth
  soundfolio tracks add --from-file assets/audio/night.mp3 --audio assets/audio/night.mp3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := addOpts.TrackInput
		in.Desc = map[string]string{"pl": addOpts.descPL, "en": addOpts.descEN, "nl": addOpts.descNL}

		if addOpts.fromFile != "" {
			prefillFromTags(cmd.Context(), &in, addOpts.fromFile)
		}
		if strings.TrimSpace(in.Title) == "" {
			return errors.New("--title is required")
		}
		if strings.TrimSpace(in.Audio) == "" {
			return errors.New("--audio is required")
		}

		store := catalogStore()
		if in.ID == "" {
			in.ID = catalog.GenerateID(in.Title, func(id string) bool {
				ok, err := store.Exists(id)
				return err == nil && ok
			})
		}

		track := catalog.NewTrack(in)
		res, err := store.Add(track)
		if err != nil {
			if res == nil {
				return err
			}
			// JSON was written, only the fallback copy failed.
			fmt.Println(warnColor("warning:"), err)
		}

		fmt.Printf("%s added %q (%s)\n", okColor("✓"), track.Title, track.ID)
		fmt.Println("  catalog:", store.Path)
		if res.FallbackUpdated {
			fmt.Printf("  fallback: %s (v=%s)\n", store.FallbackPath, res.FallbackTimestamp)
		}
		if stamped, err := catalog.StampPage(addOpts.htmlPath); err != nil {
			fmt.Println(warnColor("warning:"), err)
		} else if stamped {
			fmt.Println("  page:", addOpts.htmlPath)
		}

		warnMissing("audio", in.Audio)
		warnMissing("cover", in.Cover)
		return nil
	},
}

// prefillFromTags fills empty title, artist and year from the file's ID3 tags.
func prefillFromTags(ctx context.Context, in *catalog.TrackInput, src string) {
	tags, err := audio.ReadTags(ctx, src)
	if err != nil {
		fmt.Println(warnColor("warning:"), err)
		return
	}
	if in.Title == "" {
		in.Title = tags.Title
	}
	if in.Artist == "" {
		in.Artist = tags.Artist
	}
	if in.Year == "" && tags.Year > 0 {
		in.Year = strconv.Itoa(tags.Year)
	}
}

func warnMissing(what, p string) {
	if p == "" || strings.Contains(p, "://") {
		return
	}
	if _, err := os.Stat(p); err != nil {
		fmt.Printf("%s %s file %s does not exist yet\n", warnColor("warning:"), what, p)
	}
}

// ---- remove ----

var tracksRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := catalogStore()
		res, err := store.Remove(args[0])
		var nf *catalog.NotFoundError
		if errors.As(err, &nf) {
			fmt.Println(errColor("✗"), nf.Error())
			return err
		}
		if err != nil {
			return err
		}

		fmt.Printf("%s removed %s\n", okColor("✓"), args[0])
		if res.RemovedFromCatalog {
			fmt.Println("  catalog:", store.Path)
		}
		if res.RemovedFromFallback {
			fmt.Printf("  fallback: %s (v=%s)\n", store.FallbackPath, res.FallbackTimestamp)
		}
		if stamped, err := catalog.StampPage(addOpts.htmlPath); err == nil && stamped {
			fmt.Println("  page:", addOpts.htmlPath)
		}
		return nil
	},
}

// ---- probe ----

var probeWrite bool

var tracksProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Probe missing lengths with ffprobe",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store := catalogStore()
		tracks, err := store.Read()
		if err != nil {
			return err
		}
		cat := catalog.New(tracks)

		var persisted durations.Store
		if cfg.RedisEnabled() {
			if err := cache.ConnectRedis(cfg); err != nil {
				logger.Warn("redis unavailable, probing without the duration cache", logger.ErrorField(err))
			} else {
				defer cache.CloseRedis()
				persisted = cache.NewPlayerCache()
			}
		}

		prefetcher := durations.NewPrefetcher(durations.NewCache(), audio.NewFFmpegProcessor(cfg.FFmpegPath), persisted,
			func(index int, label string) {
				t, _ := cat.Track(index)
				fmt.Printf("%s %-28s %s\n", okColor("✓"), t.Title, label)
			})
		if err := prefetcher.Run(ctx, cat); err != nil {
			return err
		}

		updated := 0
		for i := range tracks {
			if tracks[i].HasKnownLength() {
				continue
			}
			if secs, ok := prefetcher.Cache().Seconds(i); ok {
				tracks[i].Length = secs
				updated++
				continue
			}
			fmt.Printf("%s %-28s %s\n", warnColor("?"), tracks[i].Title, utils.DurationPlaceholder)
		}

		if !probeWrite || updated == 0 {
			fmt.Printf("\n%d lengths resolved\n", updated)
			return nil
		}
		if err := store.Write(tracks); err != nil {
			return err
		}
		fmt.Printf("\n%d lengths written to %s\n", updated, store.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tracksCmd)
	tracksCmd.AddCommand(tracksListCmd, tracksAddCmd, tracksRemoveCmd, tracksProbeCmd)

	f := tracksAddCmd.Flags()
	f.StringVar(&addOpts.ID, "id", "", "track id (default: slug of the title)")
	f.StringVar(&addOpts.Title, "title", "", "track title")
	f.StringVar(&addOpts.Artist, "artist", "", "artist name")
	f.StringVar(&addOpts.Audio, "audio", "", "audio file path or URL")
	f.StringVar(&addOpts.Cover, "cover", "", "cover image path or URL")
	f.StringVar(&addOpts.Tags, "tags", "", "comma separated tags")
	f.StringVar(&addOpts.Year, "year", "", "release year (default: current year)")
	f.StringVar(&addOpts.SourceType, "type", "", "audio MIME type (default: inferred from the file name)")
	f.StringVar(&addOpts.descPL, "desc-pl", "", "Polish description")
	f.StringVar(&addOpts.descEN, "desc-en", "", "English description")
	f.StringVar(&addOpts.descNL, "desc-nl", "", "Dutch description")
	f.StringVar(&addOpts.fromFile, "from-file", "", "read title, artist and year from this file's ID3 tags")

	tracksCmd.PersistentFlags().StringVar(&addOpts.htmlPath, "html", "music.html", "HTML page whose music.js stamp is refreshed")

	tracksProbeCmd.Flags().BoolVar(&probeWrite, "write", false, "write probed lengths back to the catalog")
}
