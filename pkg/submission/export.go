package submission

import (
	"encoding/json"
	"time"

	"github.com/aretw0/govform/pkg/domain"
)

// Export is the downloadable record of a submitted application.
type Export struct {
	FullName           string               `json:"fullName"`
	Email              string               `json:"email"`
	Phone              string               `json:"phone"`
	DateOfBirth        string               `json:"dateOfBirth"`
	Address            string               `json:"address"`
	City               string               `json:"city"`
	State              string               `json:"state"`
	PostalCode         string               `json:"postalCode"`
	ServiceType        string               `json:"serviceType"`
	RequestDetails     string               `json:"requestDetails"`
	UrgencyLevel       string               `json:"urgencyLevel"`
	Documents          []domain.DocumentRef `json:"documents"`
	TermsAccepted      bool                 `json:"termsAccepted"`
	ConfirmationNumber string               `json:"confirmationNumber"`
	SubmissionDate     string               `json:"submissionDate"`
}

// NewExport builds the artifact. The submission date is the export time.
func NewExport(data domain.FormData, confirmation string, at time.Time) Export {
	docs := make([]domain.DocumentRef, len(data.Documents))
	for i, d := range data.Documents {
		docs[i] = d.Ref()
	}
	return Export{
		FullName:           data.FullName,
		Email:              data.Email,
		Phone:              data.Phone,
		DateOfBirth:        data.DateOfBirth,
		Address:            data.Address,
		City:               data.City,
		State:              data.State,
		PostalCode:         data.PostalCode,
		ServiceType:        data.ServiceType,
		RequestDetails:     data.RequestDetails,
		UrgencyLevel:       data.UrgencyLevel,
		Documents:          docs,
		TermsAccepted:      data.TermsAccepted,
		ConfirmationNumber: confirmation,
		SubmissionDate:     at.UTC().Format(time.RFC3339Nano),
	}
}

// FileName is the suggested download name.
func (e Export) FileName() string {
	return FileName(e.ConfirmationNumber)
}

// JSON renders the artifact with two-space indentation.
func (e Export) JSON() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// FileName returns gov-service-application-<confirmation>.json.
func FileName(confirmation string) string {
	return "gov-service-application-" + confirmation + ".json"
}
