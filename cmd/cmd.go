// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// trackFlags identify a track either directly by id or through a search.
func trackFlags(r *Runner) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "Catalog the track comes from",
			Value:   r.defaultSource(),
		},
		&cli.StringFlag{
			Name:  "query",
			Usage: "Search for the track instead of passing an id",
		},
		&cli.IntFlag{
			Name:  "pick",
			Usage: "1-based search result to use with --query",
			Value: 1,
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Track name (used for display and file names)",
		},
		&cli.StringFlag{
			Name:  "artist",
			Usage: "Track artist (used for display and file names)",
		},
		&cli.StringFlag{
			Name:  "lyric-id",
			Usage: "Lyric id when it differs from the track id",
		},
	}
}

func qualityFlag(r *Runner) cli.Flag {
	return &cli.StringFlag{
		Name:    "quality",
		Aliases: []string{"q", "br"},
		Usage:   "Bitrate: 128, 192, 320, 740 or 999",
		Value:   r.config.Player.Quality,
	}
}

// searchCommand queries one catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search a catalog for tracks",
		ArgsUsage: "<query...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Catalog to search",
				Value:   r.defaultSource(),
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Results per page",
				Value: r.config.Search.Count,
			},
			&cli.IntFlag{
				Name:  "pages",
				Usage: "Number of pages",
				Value: r.config.Search.Pages,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, csv or markdown",
				Value:   "text",
			},
		},
		Action: r.Search,
	}
}

// playCommand resolves a track and optionally follows its lyrics
func playCommand(r *Runner) *cli.Command {
	flags := append(trackFlags(r),
		qualityFlag(r),
		&cli.BoolFlag{
			Name:    "follow",
			Aliases: []string{"F"},
			Usage:   "Print lyric lines as playback reaches them",
		},
		&cli.DurationFlag{
			Name:  "duration",
			Usage: "Stop following after this long (0 runs until interrupted or the lyrics end)",
		},
	)
	return &cli.Command{
		Name:      "play",
		Aliases:   []string{"p"},
		Usage:     "Resolve a track's stream URL and lyrics",
		ArgsUsage: "[id]",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags:     flags,
		Action:    r.Play,
	}
}

// lyricsCommand prints a track's lyrics
func lyricsCommand(r *Runner) *cli.Command {
	flags := append(trackFlags(r),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text or json",
			Value:   "text",
		},
		&cli.DurationFlag{
			Name:  "at",
			Usage: "Mark the line active at this position, e.g. 1m5s",
			Value: -1 * time.Second,
		},
	)
	return &cli.Command{
		Name:      "lyrics",
		Aliases:   []string{"l"},
		Usage:     "Print time-synced lyrics with translations",
		ArgsUsage: "[id]",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags:     flags,
		Action:    r.Lyrics,
	}
}

// coverCommand resolves cover art
func coverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "cover",
		Usage:     "Resolve cover art for a picture id",
		ArgsUsage: "<pic_id>",
		Arguments: []cli.Argument{&cli.StringArg{Name: "pic_id"}},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Catalog the picture id comes from",
				Value:   r.defaultSource(),
			},
			&cli.IntFlag{
				Name:  "size",
				Usage: "Edge length in pixels",
				Value: r.config.Cache.CoverSize,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Also save the image to this file",
			},
		},
		Action: r.Cover,
	}
}

// downloadCommand saves a track to disk
func downloadCommand(r *Runner) *cli.Command {
	flags := append(trackFlags(r),
		qualityFlag(r),
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "Directory to save into",
			Value:   r.config.Download.Dir,
		},
		&cli.BoolFlag{
			Name:  "url-only",
			Usage: "Print the URL and file name without downloading",
		},
	)
	return &cli.Command{
		Name:      "download",
		Aliases:   []string{"dl"},
		Usage:     "Download a track as \"{name} - {artist}.{ext}\"",
		ArgsUsage: "[id]",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags:     flags,
		Action:    r.Download,
	}
}

// apiCommand handles direct aggregator API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the aggregator API",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET with a raw query string, prints the response",
				ArgsUsage: "<query>  e.g. \"types=lyric&source=netease&id=186016\"",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// proxyCommand runs the CORS reverse proxy
func proxyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "proxy",
		Usage: "Serve /api as a CORS-enabled reverse proxy to the aggregator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on",
				Value: r.config.Server.Host,
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				Value:   r.config.Server.Port,
			},
			&cli.StringFlag{
				Name:  "target",
				Usage: "Aggregator origin to forward to",
				Value: r.config.Server.Target,
			},
		},
		Action: r.Proxy,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive search, playback and lyrics TUI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the TUI owns the terminal",
				Value: "clmusic-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration as TOML",
				Action: r.ConfigShow,
			},
		},
	}
}
