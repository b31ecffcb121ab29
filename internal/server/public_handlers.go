package server

import (
	"blogsmith/internal/render"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/feeds"
)

const (
	feedItemLimit    = 50
	feedExcerptChars = 300
)

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

var staticPages = []struct {
	path       string
	changeFreq string
	priority   string
}{
	{"", "daily", "1.0"},
	{"/about", "monthly", "0.8"},
	{"/contact", "monthly", "0.5"},
	{"/newsletter", "monthly", "0.5"},
	{"/topics", "weekly", "0.6"},
	{"/archive", "weekly", "0.6"},
}

func (s *Server) siteURL() string {
	return strings.TrimRight(s.config.SiteURL, "/")
}

// handleSitemap handles GET /sitemap.xml
func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	articles, err := s.db.Articles().ListPublic(r.Context(), 0)
	if err != nil {
		s.log.Error("Failed to build sitemap", "error", err)
		http.Error(w, "sitemap unavailable", http.StatusInternalServerError)
		return
	}

	base := s.siteURL()
	today := time.Now().UTC().Format("2006-01-02")
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, p := range staticPages {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + p.path,
			LastMod:    today,
			ChangeFreq: p.changeFreq,
			Priority:   p.priority,
		})
	}
	for _, a := range articles {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/blog/%d", base, a.ID),
			LastMod:    a.UpdatedAt.UTC().Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		s.log.Error("Failed to encode sitemap", "error", err)
	}
}

// handleFeed handles GET /feed.xml
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	articles, err := s.db.Articles().ListPublic(r.Context(), feedItemLimit)
	if err != nil {
		s.log.Error("Failed to build feed", "error", err)
		http.Error(w, "feed unavailable", http.StatusInternalServerError)
		return
	}

	base := s.siteURL()
	feed := &feeds.Feed{
		Title:       s.config.SiteTitle,
		Link:        &feeds.Link{Href: base},
		Description: "Latest posts from " + s.config.SiteTitle,
		Created:     time.Now().UTC(),
	}
	for _, a := range articles {
		description := a.MetaDescription
		if description == "" {
			description = render.Excerpt(a.Content, feedExcerptChars)
		}
		link := fmt.Sprintf("%s/blog/%d", base, a.ID)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       a.Title,
			Link:        &feeds.Link{Href: link},
			Description: description,
			Created:     a.CreatedAt,
			Updated:     a.UpdatedAt,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		s.log.Error("Failed to render feed", "error", err)
		http.Error(w, "feed unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rss))
}
