package domain

import "time"

type Link struct {
	ID          string     `json:"id"`
	OriginalURL string     `json:"originalUrl"`
	ShortURL    string     `json:"shortUrl"`
	Visits      int64      `json:"visits"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`
}

type CreateLinkRequest struct {
	OriginalURL string `json:"originalUrl" validate:"required,url"`
	ShortURL    string `json:"shortUrl,omitempty" validate:"omitempty,min=4,max=24,shortcode"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type LinkPage struct {
	Links      []Link     `json:"links"`
	Pagination Pagination `json:"pagination"`
}
