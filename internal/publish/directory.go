package publish

import (
	"context"
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

type DirectoryConfig struct {
	Path string `json:"path"`
}

// DirectoryPublisher copies images into a local directory, for runs
// without an image host.
type DirectoryPublisher struct {
	dir string
	tel telemetry.API
}

func NewDirectoryPublisher(config DirectoryConfig, tel telemetry.API) (DirectoryPublisher, error) {
	if config.Path == "" {
		return DirectoryPublisher{}, fmt.Errorf("publish: directory needs a path")
	}
	dir, err := filepath.Abs(config.Path)
	if err != nil {
		return DirectoryPublisher{}, err
	}
	return DirectoryPublisher{dir: dir, tel: tel}, nil
}

func (p DirectoryPublisher) Publish(ctx context.Context, name string, png []byte) (string, error) {
	err := os.MkdirAll(p.dir, 0755)
	if err != nil {
		p.tel.ReportBroken(report_publish_upload, err, p.dir)
		return "", fmt.Errorf("%w: %w", covid.ErrUpload, err)
	}
	target := filepath.Join(p.dir, filepath.Base(name))
	err = os.WriteFile(target, png, 0644)
	if err != nil {
		p.tel.ReportBroken(report_publish_upload, err, target)
		return "", fmt.Errorf("%w: %w", covid.ErrUpload, err)
	}
	link := url.URL{Scheme: "file", Path: filepath.ToSlash(target)}
	return link.String(), nil
}
