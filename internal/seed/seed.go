// Package seed loads doctor records for bulk import, either from the
// embedded default set or from a JSON document.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"medibook/internal/model"
)

//go:embed doctors.json
var defaultDoctors []byte

const fetchTimeout = 15 * time.Second

// Record is one doctor entry in a seed document.
type Record struct {
	ID        string  `json:"id" validate:"omitempty,uuid"`
	Name      string  `json:"name" validate:"required"`
	Specialty string  `json:"specialty" validate:"required"`
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone"`
}

var validate = validator.New()

// Doctor converts the record into a model. A missing id stays uuid.Nil and
// is assigned on insert.
func (r Record) Doctor() model.Doctor {
	d := model.Doctor{
		Name:      r.Name,
		Specialty: r.Specialty,
		Latitude:  decimal.NewFromFloat(r.Latitude),
		Longitude: decimal.NewFromFloat(r.Longitude),
		Address:   r.Address,
		Phone:     r.Phone,
	}
	if id, err := uuid.Parse(r.ID); err == nil {
		d.ID = id
	}
	return d
}

// Validate checks every record and converts them to doctors.
func Validate(records []Record) ([]model.Doctor, error) {
	doctors := make([]model.Doctor, 0, len(records))
	for i, r := range records {
		if err := validate.Struct(r); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		doctors = append(doctors, r.Doctor())
	}
	return doctors, nil
}

// Load decodes a JSON array of records.
func Load(r io.Reader) ([]model.Doctor, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode seed document: %w", err)
	}
	return Validate(records)
}

// Defaults returns the built-in doctor set.
func Defaults() ([]model.Doctor, error) {
	var records []Record
	if err := json.Unmarshal(defaultDoctors, &records); err != nil {
		return nil, fmt.Errorf("decode default doctors: %w", err)
	}
	return Validate(records)
}

// Fetch downloads and loads a seed document from url.
func Fetch(ctx context.Context, url string) ([]model.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch doctors: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch doctors: unexpected status %d", resp.StatusCode)
	}
	return Load(resp.Body)
}
