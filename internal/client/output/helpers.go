package output

import (
	"fmt"
	"strings"

	"github.com/ritchy/BytePass/internal/client/document"
	"github.com/ritchy/BytePass/internal/client/storage"
)

const passwordMask = "********"

// AccountView represents an account for display
type AccountView struct {
	ID            int64    `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Status        string   `json:"status" yaml:"status"`
	Username      string   `json:"username,omitempty" yaml:"username,omitempty"`
	Password      string   `json:"password" yaml:"password"`
	AccountNumber string   `json:"account_number,omitempty" yaml:"account_number,omitempty"`
	URL           string   `json:"url,omitempty" yaml:"url,omitempty"`
	Email         string   `json:"email,omitempty" yaml:"email,omitempty"`
	Hint          string   `json:"hint,omitempty" yaml:"hint,omitempty"`
	Notes         string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	Tags          []string `json:"tags" yaml:"tags"`
	LastUpdated   string   `json:"last_updated" yaml:"last_updated"`
}

// ListItem represents a summary item for list views
type ListItem struct {
	ID          int64    `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Username    string   `json:"username,omitempty" yaml:"username,omitempty"`
	Status      string   `json:"status" yaml:"status"`
	Tags        []string `json:"tags" yaml:"tags"`
	LastUpdated string   `json:"last_updated" yaml:"last_updated"`
}

// NewAccountView converts an account for display. The password is masked
// unless reveal is set.
func NewAccountView(a document.Account, reveal bool) *AccountView {
	password := a.Password
	if !reveal && password != "" {
		password = passwordMask
	}

	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}

	return &AccountView{
		ID:            a.ID,
		Name:          a.Name,
		Status:        string(a.Status),
		Username:      a.Username,
		Password:      password,
		AccountNumber: a.AccountNumber,
		URL:           a.URL,
		Email:         a.Email,
		Hint:          a.Hint,
		Notes:         a.Notes,
		Tags:          tags,
		LastUpdated:   a.LastUpdated,
	}
}

// FormatAccount formats one account for display
func FormatAccount(a document.Account, format string, reveal bool) (string, error) {
	formatter, err := NewFormatter(format)
	if err != nil {
		return "", err
	}

	out, err := formatter.Format(NewAccountView(a, reveal))
	if err != nil {
		return "", fmt.Errorf("failed to format account: %w", err)
	}

	return out, nil
}

// FormatAccountList formats a list of accounts for display
func FormatAccountList(accounts []document.Account, format string) (string, error) {
	formatter, err := NewFormatter(format)
	if err != nil {
		return "", err
	}

	items := make([]ListItem, len(accounts))
	for i, a := range accounts {
		tags := a.Tags
		if tags == nil {
			tags = []string{}
		}
		items[i] = ListItem{
			ID:          a.ID,
			Name:        a.Name,
			Username:    a.Username,
			Status:      string(a.Status),
			Tags:        tags,
			LastUpdated: a.LastUpdated,
		}
	}

	out, err := formatter.FormatList(items)
	if err != nil {
		return "", fmt.Errorf("failed to format account list: %w", err)
	}

	return out, nil
}

// FormatDecisions formats journaled reconciliation decisions
func FormatDecisions(entries []*storage.DecisionEntry, format string) (string, error) {
	formatter, err := NewFormatter(format)
	if err != nil {
		return "", err
	}

	if entries == nil {
		entries = []*storage.DecisionEntry{}
	}

	out, err := formatter.FormatList(entries)
	if err != nil {
		return "", fmt.Errorf("failed to format decisions: %w", err)
	}

	return out, nil
}

// FormatClients formats the access ledger
func FormatClients(clients []document.ClientRequest, format string) (string, error) {
	formatter, err := NewFormatter(format)
	if err != nil {
		return "", err
	}

	if clients == nil {
		clients = []document.ClientRequest{}
	}

	out, err := formatter.FormatList(clients)
	if err != nil {
		return "", fmt.Errorf("failed to format clients: %w", err)
	}

	return out, nil
}

// FormatTags formats the distinct tag list
func FormatTags(tags []string, format string) (string, error) {
	formatter, err := NewFormatter(format)
	if err != nil {
		return "", err
	}

	if tags == nil {
		tags = []string{}
	}

	return formatter.FormatList(tags)
}

// FormatRun formats a sync run summary
func FormatRun(run *storage.SyncRun, format string) (string, error) {
	formatter, err := NewFormatter(format)
	if err != nil {
		return "", err
	}

	return formatter.Format(run)
}

// FormatError formats an error message
func FormatError(err error) string {
	return fmt.Sprintf("Error: %v\n", err)
}

// FormatSuccess formats a success message
func FormatSuccess(message string) string {
	return fmt.Sprintf("%s\n", strings.TrimRight(message, "\n"))
}
