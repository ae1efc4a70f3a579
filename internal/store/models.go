package store

import "time"

// User is an account that can reach the admin back office. Only rows with
// UserType "admin" can log in; the rest exist for the member listing.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	UserType     string     `json:"user_type"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Category struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Icon         string    `json:"icon,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsMain       bool      `json:"is_main"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type AIService struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Summary     string    `json:"summary,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	SiteURL     string    `json:"site_url,omitempty"`
	CategoryID  int64     `json:"category_id"`
	PricingType string    `json:"pricing_type,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type AIVideo struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	VideoURL     string    `json:"video_url"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Curation struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Subtitle   string    `json:"subtitle,omitempty"`
	CoverImage string    `json:"cover_image,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
}

// TrendSection is one titled row on the homepage trends tab. Its services
// form a scoped display-order list like any other.
type TrendSection struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	CategoryID   *int64    `json:"category_id,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayItem is one entry of a scoped display-order list: a category's
// service lineup, a homepage slot, or a trend section. DisplayOrder is
// 1-based and dense within the scope.
type DisplayItem struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Image        string `json:"image,omitempty"`
	DisplayOrder int    `json:"display_order"`
	IsFeatured   bool   `json:"is_featured"`
	IsActive     bool   `json:"is_active"`
}

// ListedEntity is a catalog entity offered as an addition candidate.
type ListedEntity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Homepage slot names. Each holds an independent display-order list.
const (
	SlotVideos    = "videos"
	SlotCurations = "curations"
	SlotStepPick  = "step-pick"
)

// SiteSettings is the single-row site configuration, stored as jsonb.
type SiteSettings struct {
	SiteName     string `json:"site_name"`
	Description  string `json:"description,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	FooterText   string `json:"footer_text,omitempty"`
	SEOKeywords  string `json:"seo_keywords,omitempty"`
}

type Inquiry struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type AdPartnership struct {
	ID          int64     `json:"id"`
	CompanyName string    `json:"company_name"`
	ContactName string    `json:"contact_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Message     string    `json:"message"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type DashboardStats struct {
	TotalServices    int64 `json:"total_services"`
	ActiveServices   int64 `json:"active_services"`
	TotalCategories  int64 `json:"total_categories"`
	TotalUsers       int64 `json:"total_users"`
	TotalVideos      int64 `json:"total_videos"`
	TotalCurations   int64 `json:"total_curations"`
	TotalInquiries   int64 `json:"total_inquiries"`
	PendingInquiries int64 `json:"pending_inquiries"`
}
