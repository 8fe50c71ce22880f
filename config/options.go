package config

import (
	"github.com/tsawler/textstrip"
	"github.com/tsawler/textstrip/observability"
	"github.com/tsawler/textstrip/redact"
	"github.com/tsawler/textstrip/writer"
)

// StripOptions turns the stripping settings into textstrip options
func (c *Config) StripOptions(logger observability.Logger) ([]textstrip.Option, error) {
	pages, err := c.PageList()
	if err != nil {
		return nil, err
	}
	images, err := redact.ParseImagePolicy(c.Images)
	if err != nil {
		return nil, err
	}
	graphics, err := redact.ParseGraphicsPolicy(c.Graphics)
	if err != nil {
		return nil, err
	}
	fill, err := c.FillColor()
	if err != nil {
		return nil, err
	}

	opts := []textstrip.Option{
		textstrip.WithLogger(logger),
		textstrip.WithImagePolicy(images),
		textstrip.WithGraphicsPolicy(graphics),
		textstrip.WithWorkers(c.Workers),
		textstrip.WithMarkMargin(c.MarkMargin),
		textstrip.WithSaveOptions(writer.Options{Compress: c.Save.Compress, CleanUnused: c.Save.CleanUnused}),
	}
	if len(pages) > 0 {
		opts = append(opts, textstrip.WithPages(pages...))
	}
	if fill != nil {
		opts = append(opts, textstrip.WithFill(*fill))
	}
	if c.BestEffort {
		opts = append(opts, textstrip.WithErrorPolicy(textstrip.BestEffort))
	}
	return opts, nil
}
