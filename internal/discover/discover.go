// Package discover browses the local network for karaoke servers announcing
// themselves over mDNS, so a fresh install can find a server without typing
// an address.
package discover

import (
	"context"
	"fmt"
	"strings"

	"github.com/libp2p/zeroconf/v2"
	"github.com/rs/zerolog/log"
)

const (
	ServiceType = "_karaoke-eternal._tcp"
	mdnsDomain  = "local."
)

// Server is one resolved announcement.
type Server struct {
	Name string
	Host string
	Port int
	Path string
}

// URL returns the server's HTTP base address.
func (s Server) URL() string {
	path := s.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("http://%s:%d%s", s.Host, s.Port, path)
}

// Browse streams resolved servers until ctx is cancelled. Duplicate
// announcements for the same instance are collapsed; entries without an
// address are dropped.
func Browse(ctx context.Context) (<-chan Server, error) {
	entries := make(chan *zeroconf.ServiceEntry, 8)
	out := make(chan Server, 8)

	go func() {
		defer close(out)
		seen := make(map[string]bool)
		for entry := range entries {
			if entry == nil {
				continue
			}
			srv, ok := toServer(entry)
			if !ok || seen[srv.Name] {
				continue
			}
			seen[srv.Name] = true
			log.Info().Str("module", "discover").Str("name", srv.Name).Str("url", srv.URL()).Msg("server found")
			select {
			case out <- srv:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		if err := zeroconf.Browse(ctx, ServiceType, mdnsDomain, entries); err != nil {
			log.Error().Err(err).Str("module", "discover").Msg("mdns browse")
		}
	}()

	return out, nil
}

func toServer(entry *zeroconf.ServiceEntry) (Server, bool) {
	var host string
	if len(entry.AddrIPv4) > 0 {
		host = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		host = entry.AddrIPv6[0].String()
	} else {
		return Server{}, false
	}

	path := "/"
	for _, txt := range entry.Text {
		if v, ok := strings.CutPrefix(txt, "path="); ok && v != "" {
			path = v
		}
	}

	return Server{
		Name: entry.Instance,
		Host: host,
		Port: entry.Port,
		Path: path,
	}, true
}
