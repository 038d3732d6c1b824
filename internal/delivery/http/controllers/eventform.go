package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"socio/internal/domain"
)

const maxUploadMemory = 32 << 20

// dateLayouts accepted for date fields, tried in order.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseFormDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", v)
}

// formValue reports a field's value and whether the field was present in the
// form at all. Presence drives the update diff: an absent field is left
// untouched, a present-but-empty field clears.
func formValue(r *http.Request, name string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vals, ok := r.MultipartForm.Value[name]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return strings.TrimSpace(vals[0]), true
}

// fileFromForm reads an uploaded file fully into memory. A missing file field
// is not an error; it returns (nil, nil).
func fileFromForm(r *http.Request, field string) (*domain.FileUpload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", field, err)
	}
	return &domain.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// parseStringList decodes a JSON array field. Anything that does not parse
// as a JSON array of strings falls back to the empty list; validation of
// required list fields then rejects the request downstream.
func parseStringList(v string) []string {
	if v == "" {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal([]byte(v), &list); err != nil {
		return []string{}
	}
	return list
}

// stripNonDigits keeps only ASCII digits.
func stripNonDigits(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseEventForm decodes the multipart form of an event create or update
// request into an EventInput, applying the per-field coercions the API
// contract promises: numbers parsed strictly, phone numbers reduced to
// digits, list fields parsed leniently, and "none" or empty fest meaning no
// fest. Returns a user-facing error message on bad input.
func parseEventForm(r *http.Request) (*domain.EventInput, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	in := &domain.EventInput{}

	if v, ok := formValue(r, "title"); ok {
		in.Title = &v
	}
	if v, ok := formValue(r, "description"); ok {
		in.Description = &v
	}
	if v, ok := formValue(r, "eventDate"); ok {
		t, err := parseFormDate(v)
		if err != nil {
			return nil, fmt.Errorf("eventDate: %w", err)
		}
		in.EventDate = &t
	}
	if v, ok := formValue(r, "endDate"); ok {
		in.EndDateSet = true
		if v != "" {
			t, err := parseFormDate(v)
			if err != nil {
				return nil, fmt.Errorf("endDate: %w", err)
			}
			in.EndDate = &t
		}
	}
	if v, ok := formValue(r, "eventTime"); ok {
		in.EventTime = &v
	}
	if v, ok := formValue(r, "category"); ok {
		in.Category = &v
	}
	if v, ok := formValue(r, "organizingDept"); ok {
		in.OrganizingDept = &v
	}
	if v, ok := formValue(r, "department"); ok {
		in.DepartmentAccess = parseStringList(v)
	}
	if v, ok := formValue(r, "festEvent"); ok {
		in.FestSet = true
		if v != "" && !strings.EqualFold(v, "none") {
			in.Fest = &v
		}
	}
	if v, ok := formValue(r, "registrationDeadline"); ok {
		t, err := parseFormDate(v)
		if err != nil {
			return nil, fmt.Errorf("registrationDeadline: %w", err)
		}
		in.RegistrationDeadline = &t
	}
	if v, ok := formValue(r, "venue"); ok {
		in.Venue = &v
	}
	if v, ok := formValue(r, "registrationFee"); ok {
		in.RegistrationFeeSet = true
		if v != "" {
			fee, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("registrationFee must be a number, got %q", v)
			}
			in.RegistrationFee = &fee
		}
	}
	if v, ok := formValue(r, "maxParticipants"); ok {
		in.ParticipantsSet = true
		if v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("maxParticipants must be an integer, got %q", v)
			}
			in.ParticipantsPerTeam = &n
		}
	}
	if v, ok := formValue(r, "organizerEmail"); ok {
		in.OrganizerEmail = &v
	}
	if v, ok := formValue(r, "contactPhone"); ok {
		in.OrganizerPhoneSet = true
		digits := stripNonDigits(v)
		if len(digits) >= 20 {
			return nil, fmt.Errorf("contactPhone has too many digits")
		}
		if digits != "" {
			in.OrganizerPhone = &digits
		}
	}
	if v, ok := formValue(r, "whatsappLink"); ok {
		in.WhatsappSet = true
		if v != "" {
			in.WhatsappInviteLink = &v
		}
	}
	if v, ok := formValue(r, "claims"); ok {
		claims := strings.EqualFold(v, "true")
		in.ClaimsApplicable = &claims
	}
	if v, ok := formValue(r, "scheduleItems"); ok {
		in.ScheduleSet = true
		in.Schedule = []domain.ScheduleItem{}
		if v != "" {
			// Unparseable schedule data is dropped rather than rejected.
			var items []domain.ScheduleItem
			if err := json.Unmarshal([]byte(v), &items); err == nil {
				in.Schedule = items
			}
		}
	}
	if v, ok := formValue(r, "rules"); ok {
		in.RulesSet = true
		in.Rules = parseStringList(v)
	}
	if v, ok := formValue(r, "prizes"); ok {
		in.PrizesSet = true
		in.Prizes = parseStringList(v)
	}

	var err error
	if in.Image, err = fileFromForm(r, "image"); err != nil {
		return nil, err
	}
	if in.Banner, err = fileFromForm(r, "banner"); err != nil {
		return nil, err
	}
	if in.PDF, err = fileFromForm(r, "pdf"); err != nil {
		return nil, err
	}
	if v, ok := formValue(r, "removeImage"); ok {
		in.RemoveImage = strings.EqualFold(v, "true")
	}
	if v, ok := formValue(r, "removeBanner"); ok {
		in.RemoveBanner = strings.EqualFold(v, "true")
	}
	if v, ok := formValue(r, "removePdf"); ok {
		in.RemovePDF = strings.EqualFold(v, "true")
	}
	return in, nil
}
