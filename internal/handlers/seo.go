package handlers

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// sitemapRoutes are the public pages listed in sitemap.xml.
var sitemapRoutes = []string{"/", "/problems", "/contests", "/discussions", "/sign-in", "/sign-up"}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type SEOHandler struct {
	baseURL string
}

func NewSEOHandler(baseURL string) *SEOHandler {
	return &SEOHandler{baseURL: strings.TrimRight(baseURL, "/")}
}

func (h *SEOHandler) Robots(c *gin.Context) {
	body := "User-agent: *\nAllow: /\nSitemap: " + h.baseURL + "/sitemap.xml\n"
	c.String(http.StatusOK, body)
}

func (h *SEOHandler) Sitemap(c *gin.Context) {
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, route := range sitemapRoutes {
		set.URLs = append(set.URLs, sitemapURL{Loc: h.baseURL + route})
	}
	c.XML(http.StatusOK, set)
}

func (h *SEOHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/robots.txt", h.Robots)
	router.GET("/sitemap.xml", h.Sitemap)
}
