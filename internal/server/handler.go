package server

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resizer/internal/core"
	"resizer/internal/pkg/httpclient"
)

// Known option query parameters. Everything else lands in Extra.
var knownParams = map[string]bool{
	"width":    true,
	"height":   true,
	"format":   true,
	"quality":  true,
	"fit":      true,
	"gravity":  true,
	"metadata": true,
}

// handleImage maps one inbound HTTP request onto the dispatcher.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/images/")
	if key == "" {
		http.Error(w, "missing object key", http.StatusBadRequest)
		return
	}

	// The resolver classifies by host; inbound URLs carry it only in
	// r.Host, so pin it onto the URL once here.
	if r.URL.Host == "" {
		r.URL.Host = r.Host
	}

	opts := parseOptions(r.URL.Query())
	opts = resolveAutoWidth(opts, r.Header)

	req := &core.Request{
		ID:                    uuid.NewString(),
		Key:                   key,
		Bucket:                s.cfg.Bucket,
		Options:               opts,
		CachePolicy:           s.cfg.CachePolicy,
		FallbackURL:           s.cfg.FallbackOrigin,
		HTTP:                  r,
		IsReentrantSubrequest: isReentrantSubrequest(r),
	}

	resp, err := s.dispatcher.Process(r.Context(), req)
	if err != nil {
		var notFound *core.NotFoundError
		if errors.As(err, &notFound) {
			s.log.Debug("object not found", zap.String("key", notFound.Key))
		} else {
			s.log.Error("dispatch failed", zap.String("key", key), zap.Error(err))
		}
	}

	header := w.Header()
	for name, values := range resp.Header {
		for _, value := range values {
			header.Add(name, value)
		}
	}
	header.Set("X-Request-Id", req.ID)
	w.WriteHeader(resp.Status)
	if r.Method != http.MethodHead {
		w.Write(resp.Body)
	}
}

// parseOptions reads the transform parameter set from the query string.
func parseOptions(q url.Values) core.Options {
	opts := core.Options{}
	for name, values := range q {
		if len(values) == 0 || values[0] == "" {
			continue
		}
		value := values[0]
		switch name {
		case "width":
			if value == core.WidthAuto {
				opts.Width = core.WidthAuto
			} else if w, err := strconv.Atoi(value); err == nil && w > 0 {
				opts.Width = value
			}
		case "height":
			if h, err := strconv.Atoi(value); err == nil && h > 0 {
				opts.Height = h
			}
		case "format":
			opts.Format = value
		case "quality":
			if quality, err := strconv.Atoi(value); err == nil && quality > 0 && quality <= 100 {
				opts.Quality = quality
			}
		case "fit":
			opts.Fit = value
		case "gravity":
			opts.Gravity = value
		case "metadata":
			opts.Metadata = value
		default:
			if opts.Extra == nil {
				opts.Extra = make(map[string]string)
			}
			opts.Extra[name] = value
		}
	}
	return opts
}

// resolveAutoWidth replaces the width=auto sentinel with a concrete
// pixel count derived from client hints when they are present. Without
// hints the sentinel passes through for the edge to resolve.
func resolveAutoWidth(opts core.Options, h http.Header) core.Options {
	if opts.Width != core.WidthAuto {
		return opts
	}

	hinted := h.Get("Width")
	if hinted == "" {
		hinted = h.Get("Viewport-Width")
	}
	base, err := strconv.Atoi(hinted)
	if err != nil || base <= 0 {
		return opts
	}

	dpr := 1.0
	if raw := h.Get("DPR"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			dpr = parsed
		}
	}

	opts.Width = strconv.Itoa(int(math.Round(float64(base) * dpr)))
	return opts
}

// isReentrantSubrequest detects the transform capability re-requesting
// the URL to obtain source bytes. Derived once here; the rest of the
// system branches on the boolean only.
func isReentrantSubrequest(r *http.Request) bool {
	if r.Header.Get(httpclient.ResizedHeader) != "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Via")), "image-resizing")
}
