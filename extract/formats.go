package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"audioproxy/resolver"
)

// ytdlpInfo - нужная часть вывода yt-dlp -J
type ytdlpInfo struct {
	ID      string        `json:"id"`
	Formats []ytdlpFormat `json:"formats"`
}

type ytdlpFormat struct {
	FormatID    string `json:"format_id"`
	URL         string `json:"url"`
	ManifestURL string `json:"manifest_url"`
	Ext         string `json:"ext"`
	AudioExt    string `json:"audio_ext"`
	ACodec      string `json:"acodec"`
	VCodec      string `json:"vcodec"`
	Protocol    string `json:"protocol"`
}

// audioOnly: видео нет, аудио есть. Отсутствующий acodec считается "none".
func (f ytdlpFormat) audioOnly() bool {
	return f.VCodec == "none" && f.ACodec != "" && f.ACodec != "none"
}

// directURL: данные скачиваются одним GET по url
func (f ytdlpFormat) directURL() bool {
	switch f.Protocol {
	case "http", "https":
		return true
	}
	return false
}

var extMimes = map[string]string{
	"m4a":  "audio/mp4",
	"mp4":  "audio/mp4",
	"webm": "audio/webm",
	"mp3":  "audio/mpeg",
	"opus": "audio/opus",
	"aac":  "audio/aac",
	"ogg":  "audio/ogg",
}

// mimeForExt переводит расширение yt-dlp в MIME тип; неизвестное дает пустую строку
func mimeForExt(ext string) string {
	return extMimes[strings.ToLower(ext)]
}

// parseStreams разбирает вывод yt-dlp -J в кандидатов в порядке, заданном платформой
func parseStreams(data []byte) ([]resolver.Candidate, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse extractor output: %w", err)
	}

	candidates := make([]resolver.Candidate, 0, len(info.Formats))
	for _, f := range info.Formats {
		if !f.audioOnly() {
			continue
		}

		ext := f.AudioExt
		if ext == "" || ext == "none" {
			ext = f.Ext
		}
		c := resolver.Candidate{MimeType: mimeForExt(ext)}

		if f.directURL() {
			c.Locator = f.URL
			c.IsURL = true
		} else {
			c.Locator = f.ManifestURL
			if c.Locator == "" {
				c.Locator = f.URL
			}
		}
		if c.Locator == "" {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// parseSearchLines разбирает построчный JSON yt-dlp --flat-playlist -j в URL элементов
func parseSearchLines(data []byte, watchURLPrefix string) []string {
	var urls []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry struct {
			ID  string `json:"id"`
			URL string `json:"url"`
		}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		switch {
		case entry.ID != "":
			urls = append(urls, watchURLPrefix+entry.ID)
		case resolver.IsURL(entry.URL):
			urls = append(urls, entry.URL)
		}
	}
	return urls
}
