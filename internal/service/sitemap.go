package service

import (
	"context"
	"encoding/xml"
	"net/url"
	"strconv"
	"strings"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// SitemapService lists the public pages and every currently published article.
type SitemapService struct {
	news    *NewsService
	baseURL string
}

func NewSitemapService(news *NewsService, baseURL string) *SitemapService {
	return &SitemapService{
		news:    news,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (s *SitemapService) Generate(ctx context.Context) ([]byte, error) {
	set := sitemapURLSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	set.URLs = append(set.URLs,
		sitemapURL{Loc: s.baseURL + "/", ChangeFreq: "daily", Priority: "1.0"},
		sitemapURL{Loc: s.baseURL + "/archive", ChangeFreq: "daily", Priority: "0.5"},
	)

	for _, category := range s.news.Categories() {
		_, items, err := s.news.Home(ctx, category)
		if err != nil {
			return nil, err
		}

		set.URLs = append(set.URLs, sitemapURL{
			Loc:        s.baseURL + "/?category=" + url.QueryEscape(category),
			ChangeFreq: "daily",
			Priority:   "0.8",
		})
		for _, n := range items {
			set.URLs = append(set.URLs, sitemapURL{
				Loc:      s.baseURL + "/news/" + strconv.FormatInt(n.ID, 10) + "/" + url.PathEscape(n.Slug),
				LastMod:  n.StartDate.Format("2006-01-02"),
				Priority: "0.6",
			})
		}
	}

	output, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), output...), nil
}
