package chi

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/kailas-cloud/postgen/internal/domain"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type toneOption struct {
	Value    string
	Label    string
	Selected bool
}

// pageData is everything the form page renders.
type pageData struct {
	Idea         string
	Tones        []toneOption
	Post         string
	Error        string
	Remaining    int
	FreeLimit    int
	Unlimited    bool
	ShowPassword bool
	UpgradeURL   string
}

func newPageData(selected string, remaining, freeLimit int, unlimited bool, upgradeURL string) pageData {
	if selected == "" {
		selected = string(domain.DefaultTone)
	}
	tones := make([]toneOption, 0, len(domain.Tones()))
	for _, t := range domain.Tones() {
		tones = append(tones, toneOption{Value: string(t), Label: t.Title(), Selected: string(t) == selected})
	}
	return pageData{
		Tones:        tones,
		Remaining:    remaining,
		FreeLimit:    freeLimit,
		Unlimited:    unlimited,
		ShowPassword: !unlimited && remaining == 0,
		UpgradeURL:   upgradeURL,
	}
}

// renderPage buffers the template so a render failure never produces a half-written page.
func renderPage(w http.ResponseWriter, data pageData) error {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}
