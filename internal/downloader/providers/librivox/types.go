package librivox

// API response structures for the LibriVox feed API.

type audiobooksResponse struct {
	Books []apiBook `json:"books"`
}

type apiBook struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	URLLibrivox string      `json:"url_librivox"`
	Authors     []apiAuthor `json:"authors"`
	Sections    []apiSection `json:"sections"`
}

type apiAuthor struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type apiSection struct {
	ID            string      `json:"id"`
	SectionNumber string      `json:"section_number"`
	Title         string      `json:"title"`
	ListenURL     string      `json:"listen_url"`
	Playtime      string      `json:"playtime"` // seconds
	Readers       []apiReader `json:"readers"`
}

type apiReader struct {
	DisplayName string `json:"display_name"`
}
