package render

// Config holds the site configuration the renderer honors.
type Config struct {
	StaticDomain       string `env:"STATIC_DOMAIN"`        // default: "http://localhost:3000"
	APIDomain          string `env:"API_DOMAIN"`           // default: "http://localhost:8000"
	NoticePageSize     int    `env:"NOTICE_PAGE_SIZE"`     // default: 10
	ActivityPageSize   int    `env:"ACTIVITY_PAGE_SIZE"`   // default: 12
	NewsletterPageSize int    `env:"NEWSLETTER_PAGE_SIZE"` // default: 12
	DistDir            string `env:"DIST_DIR"`             // default: "dist"
}

func (c *Config) staticDomain() string {
	d := c.StaticDomain
	if d == "" {
		d = "http://localhost:3000"
	}
	return d
}

func (c *Config) apiDomain() string {
	d := c.APIDomain
	if d == "" {
		d = "http://localhost:8000"
	}
	return d
}

func (c *Config) noticePageSize() int {
	n := c.NoticePageSize
	if n <= 0 {
		n = 10
	}
	return n
}

func (c *Config) activityPageSize() int {
	n := c.ActivityPageSize
	if n <= 0 {
		n = 12
	}
	return n
}

func (c *Config) newsletterPageSize() int {
	n := c.NewsletterPageSize
	if n <= 0 {
		n = 12
	}
	return n
}

// Dir returns the output root.
func (c *Config) Dir() string {
	d := c.DistDir
	if d == "" {
		d = "dist"
	}
	return d
}
