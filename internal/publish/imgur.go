package publish

import (
	"bytes"
	"context"
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultImgurEndpoint = "https://api.imgur.com"

type ImgurConfig struct {
	ClientId string `json:"client_id"`
	// Endpoint defaults to https://api.imgur.com.
	Endpoint string `json:"endpoint"`
}

type imgurResponse struct {
	Data struct {
		Link  string `json:"link"`
		Error any    `json:"error"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

// ImgurPublisher uploads anonymously to imgur with a client id.
type ImgurPublisher struct {
	http *resty.Client
	tel  telemetry.API
}

func NewImgurPublisher(config ImgurConfig, tel telemetry.API) (ImgurPublisher, error) {
	if config.ClientId == "" {
		return ImgurPublisher{}, fmt.Errorf("publish: imgur needs a client_id")
	}
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = defaultImgurEndpoint
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(endpoint, "/"))
	client.SetHeader("authorization", fmt.Sprintf("Client-ID %s", config.ClientId))
	client.SetTimeout(time.Minute)
	telemetry.InstrumentResty(client, tel)

	return ImgurPublisher{http: client, tel: tel}, nil
}

func (p ImgurPublisher) Publish(ctx context.Context, name string, png []byte) (string, error) {
	var body imgurResponse
	res, err := p.http.R().
		SetContext(ctx).
		SetFileReader("image", name, bytes.NewReader(png)).
		SetFormData(map[string]string{
			"type":  "file",
			"name":  name,
			"title": "Covid-19 graph",
		}).
		SetResult(&body).
		SetError(&body).
		Post("/3/image")
	if err != nil {
		p.tel.ReportBroken(report_publish_upload, err, name)
		return "", fmt.Errorf("%w: imgur upload %s: %w", covid.ErrNetwork, name, err)
	}
	if res.IsError() || !body.Success || body.Data.Link == "" {
		err := fmt.Errorf(
			"%w: imgur upload %s: status %d: %v",
			covid.ErrUpload, name, res.StatusCode(), body.Data.Error,
		)
		p.tel.ReportBroken(report_publish_upload, err)
		return "", err
	}
	return body.Data.Link, nil
}
