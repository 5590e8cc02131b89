package upstream

// Contact is the CRM's contact record, which this service uses as its user
// store. Application data (password, plan, research payload) rides in the
// custom-fields array.
type Contact struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	FirstName    string        `json:"firstName"`
	LastName     string        `json:"lastName"`
	CustomFields []CustomField `json:"customFields"`
}

// CustomField is one entry of the CRM's custom-field extension mechanism.
type CustomField struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// Field returns the value of the custom field with the given ID, or ""
// when the contact does not carry it.
func (c *Contact) Field(id string) string {
	for _, f := range c.CustomFields {
		if f.ID == id {
			return f.Value
		}
	}
	return ""
}

// DisplayName joins first and last name, falling back to the email address
// when the contact has no name at all.
func (c *Contact) DisplayName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	case c.LastName != "":
		return c.LastName
	default:
		return c.Email
	}
}
