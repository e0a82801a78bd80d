package stages

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
	"reelsmith/internal/services/stockmedia"
)

// fetchFn downloads a remote asset to a local path.
type fetchFn func(ctx context.Context, url, destination string) error

// VisualsOptions configures the visuals executor.
type VisualsOptions struct {
	Searcher stockmedia.Searcher
	Logger   *slog.Logger

	// Fetch overrides asset downloading; defaults to a plain HTTP download.
	Fetch fetchFn
}

// NewVisualsExecutor matches each scene against stock footage and downloads
// the chosen asset into the session work directory. Scenes without footage
// matches fall back to photos.
func NewVisualsExecutor(opts VisualsOptions) pipeline.ExecutorFn {
	logger := logging.NewComponentLogger(opts.Logger, "visuals")
	fetch := opts.Fetch
	if fetch == nil {
		fetch = httpFetch
	}
	return func(ctx context.Context, req pipeline.Request) (pipeline.Output, error) {
		scenes, err := priorField[[]Scene](req.Prior, pipeline.StageScenes, "scenes")
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, string(pipeline.StageVisuals), "inputs", err.Error(), nil)
		}

		assetDir := filepath.Join(req.WorkDir, "visuals")
		if err := os.MkdirAll(assetDir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, string(pipeline.StageVisuals), "workdir",
				"create asset directory", err)
		}

		assets := make([]Asset, 0, len(scenes))
		for _, scene := range scenes {
			asset, err := matchScene(ctx, opts.Searcher, fetch, assetDir, scene)
			if err != nil {
				return nil, err
			}
			logger.Debug("scene matched",
				logging.String(logging.FieldSessionID, req.SessionID),
				logging.Int("scene_id", scene.SceneID),
				logging.String("asset_kind", asset.Kind),
			)
			assets = append(assets, asset)
		}
		return pipeline.Output{
			"assets":      assets,
			"asset_count": len(assets),
		}, nil
	}
}

func matchScene(ctx context.Context, searcher stockmedia.Searcher, fetch fetchFn, assetDir string, scene Scene) (Asset, error) {
	query := sceneQuery(scene)

	videos, err := searcher.SearchVideos(ctx, query, stockmedia.SearchOptions{PerPage: 3, Orientation: "landscape"})
	if err != nil {
		return Asset{}, services.Wrap(services.ErrExternalTool, string(pipeline.StageVisuals), "search",
			fmt.Sprintf("footage search for scene %d failed", scene.SceneID), err)
	}
	if link := bestVideoLink(videos); link != "" {
		destination := filepath.Join(assetDir, fmt.Sprintf("scene-%d.mp4", scene.SceneID))
		if err := fetch(ctx, link, destination); err != nil {
			return Asset{}, services.Wrap(services.ErrExternalTool, string(pipeline.StageVisuals), "download",
				fmt.Sprintf("download footage for scene %d", scene.SceneID), err)
		}
		return Asset{SceneID: scene.SceneID, Kind: "video", SourceURL: link, LocalPath: destination}, nil
	}

	photos, err := searcher.SearchPhotos(ctx, query, stockmedia.SearchOptions{PerPage: 1, Orientation: "landscape"})
	if err != nil {
		return Asset{}, services.Wrap(services.ErrExternalTool, string(pipeline.StageVisuals), "search",
			fmt.Sprintf("photo search for scene %d failed", scene.SceneID), err)
	}
	if len(photos.Photos) == 0 {
		return Asset{}, services.Wrap(services.ErrNotFound, string(pipeline.StageVisuals), "search",
			fmt.Sprintf("no stock media found for scene %d (%q)", scene.SceneID, query), nil)
	}
	link := photos.Photos[0].Src.Large
	if link == "" {
		link = photos.Photos[0].Src.Original
	}
	destination := filepath.Join(assetDir, fmt.Sprintf("scene-%d.jpg", scene.SceneID))
	if err := fetch(ctx, link, destination); err != nil {
		return Asset{}, services.Wrap(services.ErrExternalTool, string(pipeline.StageVisuals), "download",
			fmt.Sprintf("download photo for scene %d", scene.SceneID), err)
	}
	return Asset{SceneID: scene.SceneID, Kind: "photo", SourceURL: link, LocalPath: destination}, nil
}

func sceneQuery(scene Scene) string {
	if len(scene.Keywords) > 0 {
		return strings.Join(scene.Keywords, " ")
	}
	return scene.Title
}

// bestVideoLink picks the HD rendition when available, otherwise the first.
func bestVideoLink(resp *stockmedia.VideoResponse) string {
	for _, video := range resp.Videos {
		var fallback string
		for _, file := range video.VideoFiles {
			if file.Link == "" {
				continue
			}
			if file.Quality == "hd" {
				return file.Link
			}
			if fallback == "" {
				fallback = file.Link
			}
		}
		if fallback != "" {
			return fallback
		}
	}
	return ""
}

func httpFetch(ctx context.Context, url, destination string) error {
	client := &http.Client{Timeout: 2 * time.Minute}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned %d", resp.StatusCode)
	}
	file, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("create asset file: %w", err)
	}
	defer file.Close()
	if _, err := io.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("write asset file: %w", err)
	}
	return nil
}
