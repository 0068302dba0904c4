// Package imagecheck verifies that the chart images on the results pages
// load and swaps in a "no data" message when they do not.
package imagecheck

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Fetcher loads pages and probes image URLs on the simulation service.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
	Probe(ctx context.Context, ref string) error
}

type ImageStatus struct {
	Src string
	Err error
}

func (s ImageStatus) OK() bool { return s.Err == nil }

type Report struct {
	Watch          string
	Images         []ImageStatus
	ContainerFound bool
	// Fallback is set when the container now holds the fallback block.
	Fallback bool
	HTML     string
}

// Available reports whether every image on the page loaded.
func (r Report) Available() bool {
	if r.Fallback || len(r.Images) == 0 {
		return false
	}
	for _, img := range r.Images {
		if !img.OK() {
			return false
		}
	}
	return true
}

type Checker struct {
	fetcher Fetcher
	log     *zap.Logger
}

func New(fetcher Fetcher, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{fetcher: fetcher, log: logger.Named("imagecheck")}
}

// Check fetches the watched page and runs CheckHTML on it.
func (c *Checker) Check(ctx context.Context, w Watch) (Report, error) {
	body, err := c.fetcher.Fetch(ctx, w.Page)
	if err != nil {
		return Report{Watch: w.Name}, fmt.Errorf("imagecheck: %s: %w", w.Page, err)
	}
	return c.CheckHTML(ctx, w, body)
}

// CheckHTML probes each image of an already loaded page once and rewrites
// the container when the watch's failure condition holds.
func (c *Checker) CheckHTML(ctx context.Context, w Watch, page []byte) (Report, error) {
	rep := Report{Watch: w.Name}

	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return rep, fmt.Errorf("imagecheck: parse %s: %w", w.Page, err)
	}
	container, err := htmlquery.Query(root, w.Container)
	if err != nil {
		return rep, fmt.Errorf("imagecheck: container xpath: %w", err)
	}
	images, err := htmlquery.QueryAll(root, w.Images)
	if err != nil {
		return rep, fmt.Errorf("imagecheck: images xpath: %w", err)
	}
	rep.ContainerFound = container != nil

	failed := 0
	for _, img := range images {
		st := ImageStatus{Src: htmlquery.SelectAttr(img, "src")}
		if st.Src == "" {
			st.Err = ErrNoSource
		} else {
			st.Err = c.fetcher.Probe(ctx, st.Src)
		}
		if st.Err != nil {
			failed++
			c.log.Debug("image unavailable", zap.String("watch", w.Name), zap.String("src", st.Src), zap.Error(st.Err))
		}
		rep.Images = append(rep.Images, st)
	}

	replace := false
	switch {
	case len(images) == 0:
		replace = w.Absent
	case w.RequireAll:
		replace = failed > 0
	default:
		replace = failed == len(images)
	}

	if replace && container != nil {
		if err := ReplaceWithFallback(container, w.Fallback); err != nil {
			return rep, err
		}
		rep.Fallback = true
		c.log.Info("fallback shown", zap.String("watch", w.Name), zap.Int("failed", failed), zap.Int("images", len(images)))
	}

	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return rep, fmt.Errorf("imagecheck: render: %w", err)
	}
	rep.HTML = sb.String()
	return rep, nil
}

// ReplaceWithFallback swaps every child of container for the fallback block.
// Applying it again leaves a single block.
func ReplaceWithFallback(container *html.Node, fb Fallback) error {
	nodes, err := html.ParseFragment(strings.NewReader(fallbackHTML(fb)), container)
	if err != nil {
		return fmt.Errorf("imagecheck: fallback: %w", err)
	}
	for ch := container.FirstChild; ch != nil; {
		next := ch.NextSibling
		container.RemoveChild(ch)
		ch = next
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return nil
}

func fallbackHTML(fb Fallback) string {
	return fmt.Sprintf(
		`<div class="no-data-message"><h3>%s</h3><p>%s</p><a href="%s" class="btn-calculate">%s</a></div>`,
		html.EscapeString(fb.Title),
		html.EscapeString(fb.Text),
		html.EscapeString(fb.LinkTarget),
		html.EscapeString(fb.LinkText),
	)
}
