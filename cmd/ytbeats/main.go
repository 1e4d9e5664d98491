// Package main provides the ytbeats CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	"github.com/osa030/ytbeats/internal/api/apiv1"
	"github.com/osa030/ytbeats/internal/api/apiv1/apiv1connect"
	apiconnect "github.com/osa030/ytbeats/internal/api/connect"
	"github.com/osa030/ytbeats/internal/infra/config"
	"github.com/osa030/ytbeats/internal/infra/deps"
)

var (
	app    = kingpin.New("ytbeats", "ytbeats client")
	server = app.Flag("server", "Daemon address").Default("http://127.0.0.1:8719").Envar("YTBEATS_SERVER").String()
	token  = app.Flag("token", "API token (or set YTBEATS_TOKEN env)").Envar("YTBEATS_TOKEN").String()

	// status command
	statusCmd = app.Command("status", "Show player status").Default()

	// queue command
	queueCmd = app.Command("queue", "Show the playback queue").Alias("ls")

	// play command
	playCmd   = app.Command("play", "Replace the queue with a path, URL, video ID or search query")
	playInput = playCmd.Arg("input", "Path, URL, video ID or search terms").Required().Strings()

	// enqueue command
	enqueueCmd   = app.Command("enqueue", "Append a path, URL, video ID or search query to the queue").Alias("add")
	enqueueInput = enqueueCmd.Arg("input", "Path, URL, video ID or search terms").Required().Strings()

	// playall command
	playAllCmd   = app.Command("playall", "Play the downloaded library")
	playAllGroup = playAllCmd.Arg("group", "Library group (subdirectory)").String()

	// transport commands
	nextCmd  = app.Command("next", "Skip to the next track")
	prevCmd  = app.Command("prev", "Go back to the previous track")
	pauseCmd = app.Command("pause", "Toggle pause")
	stopCmd  = app.Command("stop", "Stop playback, keep the queue")
	clearCmd = app.Command("clear", "Clear the queue")

	// volume command
	volumeCmd = app.Command("volume", "Set (N) or change (+N, -N) the volume; pass -- before -N")
	volumeArg = volumeCmd.Arg("value", "N, +N or -N").Required().String()

	// search command
	searchCmd   = app.Command("search", "Search the catalog")
	searchQuery = searchCmd.Arg("query", "Search terms").Required().Strings()
	searchLimit = searchCmd.Flag("limit", "Maximum results").Short('n').Int()

	// download command
	downloadCmd     = app.Command("download", "Download a track as audio").Alias("dl")
	downloadLocator = downloadCmd.Arg("locator", "URL or video ID").Required().String()
	downloadTitle   = downloadCmd.Flag("title", "Display title").String()
	downloadGroup   = downloadCmd.Flag("group", "Library group (subdirectory)").Short('g').String()

	// downloads command
	downloadsCmd = app.Command("downloads", "List download tasks")

	// library command
	libraryCmd   = app.Command("library", "List downloaded files")
	libraryGroup = libraryCmd.Arg("group", "Library group (subdirectory)").String()

	// watch command
	watchCmd = app.Command("watch", "Stream playback and download notifications")

	// doctor command
	doctorCmd    = app.Command("doctor", "Check external binaries on this machine")
	doctorConfig = doctorCmd.Flag("config", "Path to daemon config file").Default("config/ytbeatsd.yaml").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == doctorCmd.FullCommand() {
		doctor(*doctorConfig)
		return
	}

	// Create clients
	opt := connect.WithInterceptors(apiconnect.NewTokenInterceptor(*token))
	player := apiv1connect.NewPlayerServiceClient(http.DefaultClient, *server, opt)
	downloads := apiv1connect.NewDownloadServiceClient(http.DefaultClient, *server, opt)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Execute command
	switch command {
	case statusCmd.FullCommand():
		status(ctx, player)
	case queueCmd.FullCommand():
		queue(ctx, player)
	case playCmd.FullCommand():
		play(ctx, player, strings.Join(*playInput, " "), false)
	case enqueueCmd.FullCommand():
		play(ctx, player, strings.Join(*enqueueInput, " "), true)
	case playAllCmd.FullCommand():
		resp, err := player.PlayAll(ctx, connect.NewRequest(&apiv1.PlayAllRequest{Group: *playAllGroup}))
		check(err)
		fmt.Printf("Playing %d local tracks\n", len(resp.Msg.Tracks))
	case nextCmd.FullCommand():
		_, err := player.Next(ctx, connect.NewRequest(&apiv1.Empty{}))
		check(err)
	case prevCmd.FullCommand():
		_, err := player.Previous(ctx, connect.NewRequest(&apiv1.Empty{}))
		check(err)
	case pauseCmd.FullCommand():
		_, err := player.Pause(ctx, connect.NewRequest(&apiv1.Empty{}))
		check(err)
	case stopCmd.FullCommand():
		_, err := player.Stop(ctx, connect.NewRequest(&apiv1.Empty{}))
		check(err)
	case clearCmd.FullCommand():
		_, err := player.Clear(ctx, connect.NewRequest(&apiv1.Empty{}))
		check(err)
		fmt.Println("Queue cleared")
	case volumeCmd.FullCommand():
		volume(ctx, player, *volumeArg)
	case searchCmd.FullCommand():
		search(ctx, player, strings.Join(*searchQuery, " "), *searchLimit)
	case downloadCmd.FullCommand():
		download(ctx, downloads)
	case downloadsCmd.FullCommand():
		listDownloads(ctx, downloads)
	case libraryCmd.FullCommand():
		library(ctx, downloads, *libraryGroup)
	case watchCmd.FullCommand():
		watch(ctx, downloads)
	}
}

func check(err error) {
	if err == nil {
		return
	}
	if connect.CodeOf(err) == connect.CodeUnauthenticated {
		fmt.Println("Error: invalid or missing token (use --token or YTBEATS_TOKEN env)")
	} else {
		fmt.Printf("Error: %v\n", err)
	}
	os.Exit(1)
}

func status(ctx context.Context, client *apiv1connect.PlayerServiceClient) {
	resp, err := client.Status(ctx, connect.NewRequest(&apiv1.Empty{}))
	check(err)
	fmt.Println(renderTable(statusColumns, statusRows(resp.Msg)))
}

func queue(ctx context.Context, client *apiv1connect.PlayerServiceClient) {
	resp, err := client.Queue(ctx, connect.NewRequest(&apiv1.Empty{}))
	check(err)
	if len(resp.Msg.Items) == 0 {
		fmt.Println("Queue is empty")
		return
	}
	fmt.Println(renderTable(queueColumns, queueRows(resp.Msg)))
}

func play(ctx context.Context, client *apiv1connect.PlayerServiceClient, input string, appendOnly bool) {
	req := connect.NewRequest(&apiv1.InputRequest{Input: input})

	var resp *connect.Response[apiv1.TracksResponse]
	var err error
	if appendOnly {
		resp, err = client.Enqueue(ctx, req)
	} else {
		resp, err = client.Play(ctx, req)
	}
	check(err)

	tracks := resp.Msg.Tracks
	switch len(tracks) {
	case 1:
		fmt.Printf("Queued: %s\n", tracks[0].Title)
	default:
		fmt.Printf("Queued %d tracks\n", len(tracks))
	}
}

func volume(ctx context.Context, client *apiv1connect.PlayerServiceClient, arg string) {
	change, err := parseVolume(arg)
	check(err)

	var resp *connect.Response[apiv1.VolumeResponse]
	if change.Relative {
		resp, err = client.ChangeVolume(ctx, connect.NewRequest(&apiv1.ChangeVolumeRequest{Delta: change.Value}))
	} else {
		resp, err = client.SetVolume(ctx, connect.NewRequest(&apiv1.SetVolumeRequest{Volume: change.Value}))
	}
	check(err)
	fmt.Printf("Volume: %d%%\n", resp.Msg.Volume)
}

func search(ctx context.Context, client *apiv1connect.PlayerServiceClient, query string, limit int) {
	resp, err := client.Search(ctx, connect.NewRequest(&apiv1.SearchRequest{Query: query, Limit: limit}))
	check(err)
	if len(resp.Msg.Results) == 0 {
		fmt.Println("No results")
		return
	}
	fmt.Println(renderTable(searchColumns, searchRows(resp.Msg.Results)))
}

func download(ctx context.Context, client *apiv1connect.DownloadServiceClient) {
	resp, err := client.Add(ctx, connect.NewRequest(&apiv1.AddDownloadRequest{
		Locator: *downloadLocator,
		Title:   *downloadTitle,
		Group:   *downloadGroup,
	}))
	if connect.CodeOf(err) == connect.CodeAlreadyExists {
		fmt.Printf("Already downloaded or queued: %s\n", *downloadLocator)
		return
	}
	check(err)
	fmt.Printf("Download queued: id=%s\n", resp.Msg.Task.ID)
}

func listDownloads(ctx context.Context, client *apiv1connect.DownloadServiceClient) {
	resp, err := client.List(ctx, connect.NewRequest(&apiv1.Empty{}))
	check(err)
	if len(resp.Msg.Tasks) == 0 {
		fmt.Println("No downloads")
		return
	}
	fmt.Println(renderTable(downloadColumns, downloadRows(resp.Msg.Tasks)))
}

func library(ctx context.Context, client *apiv1connect.DownloadServiceClient, group string) {
	resp, err := client.Library(ctx, connect.NewRequest(&apiv1.LibraryRequest{Group: group}))
	check(err)
	if len(resp.Msg.Entries) == 0 {
		fmt.Println("Library is empty")
		return
	}
	fmt.Println(renderTable(libraryColumns, libraryRows(resp.Msg.Entries)))
}

func watch(ctx context.Context, client *apiv1connect.DownloadServiceClient) {
	stream, err := client.Watch(ctx, connect.NewRequest(&apiv1.Empty{}))
	check(err)
	defer stream.Close()

	for stream.Receive() {
		fmt.Println(formatNotification(stream.Msg()))
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		check(err)
	}
}

func doctor(configPath string) {
	cfg, err := config.Load(configPath)
	check(err)

	statuses := deps.CheckBinaries(deps.Requirements(cfg.Player.Binary, cfg.Downloads.Retriever, cfg.Downloads.ConversionTool))
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		state := "ok"
		if !s.Available {
			state = s.Detail
		}
		required := "yes"
		if s.Optional {
			required = "no"
		}
		rows = append(rows, []string{s.Name, s.Description, required, state, s.Path})
	}
	fmt.Println(renderTable(doctorColumns, rows))

	if missing := deps.Missing(statuses); len(missing) > 0 {
		os.Exit(1)
	}
}
