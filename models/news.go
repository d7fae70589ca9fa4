package models

// Article 过滤后的农业新闻
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	Source      string `json:"source"`
	Published   string `json:"published"`
}
