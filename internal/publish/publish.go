package publish

import (
	"context"
	"covidcurve/internal/components/chrono"
	"covidcurve/internal/components/telemetry"
	"fmt"
)

const (
	report_publish_upload = "publish.upload"
)

// Publisher uploads an image and returns the public URL it can be viewed at.
type Publisher interface {
	Publish(ctx context.Context, name string, png []byte) (string, error)
}

const (
	DRIVER_IMGUR     = "imgur"
	DRIVER_S3        = "s3"
	DRIVER_DIRECTORY = "directory"
)

type Config struct {
	// Driver is one of "imgur" (default), "s3" or "directory".
	Driver    string          `json:"driver"`
	Imgur     ImgurConfig     `json:"imgur"`
	S3        S3Config        `json:"s3"`
	Directory DirectoryConfig `json:"directory"`
}

// Open creates the publisher selected by the config.
func Open(ctx context.Context, config Config, clock chrono.API, tel telemetry.API) (Publisher, error) {
	tel = telemetry.NewScopedAPI("publish", tel)

	switch config.Driver {
	case "", DRIVER_IMGUR:
		return NewImgurPublisher(config.Imgur, tel)
	case DRIVER_S3:
		return NewS3Publisher(ctx, config.S3, clock, tel)
	case DRIVER_DIRECTORY:
		return NewDirectoryPublisher(config.Directory, tel)
	}
	return nil, fmt.Errorf("publish: unknown driver %q", config.Driver)
}
