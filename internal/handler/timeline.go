package handler

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/tripdiary/backend/internal/domain"
	"github.com/tripdiary/backend/internal/service"
)

// TimelineItemRequest is the body of POST /trips/{tripId}/timeline and
// PUT /trips/{tripId}/timeline/{itemId}. Times are "HH:MM" wall-clock values.
type TimelineItemRequest struct {
	DayDate   *openapi_types.Date `json:"day_date"`
	StartTime *string             `json:"start_time"`
	EndTime   *string             `json:"end_time"`
	PlaceID   *uuid.UUID          `json:"place_id"`
}

// CreatedItemResponse carries the ID of a newly created timeline item.
type CreatedItemResponse struct {
	ItemID uuid.UUID `json:"item_id"`
}

// BulkDaysRequest is the body of PUT /trips/{tripId}/days.
type BulkDaysRequest struct {
	Days []DayUpdateRequest `json:"days" validate:"required,dive"`
}

// DayUpdateRequest replaces every editable attribute of one day.
// An omitted field clears the stored value.
type DayUpdateRequest struct {
	DayID         uuid.UUID `json:"day_id"`
	ThemeTitle    *string   `json:"theme_title" validate:"omitempty,max=100"`
	DayNote       *string   `json:"day_note" validate:"omitempty,max=2000"`
	BudgetPlanned *int      `json:"budget_planned"`
	BudgetSpent   *int      `json:"budget_spent"`
}

// TimelineResponse is the ordered day tree of a trip.
type TimelineResponse struct {
	TripID uuid.UUID     `json:"trip_id"`
	Days   []DayResponse `json:"days"`
}

// DayResponse is one day with its items in start-time order.
type DayResponse struct {
	DayID         uuid.UUID          `json:"day_id"`
	Date          openapi_types.Date `json:"date"`
	DayIndex      int                `json:"day_index"`
	ThemeTitle    *string            `json:"theme_title"`
	DayNote       *string            `json:"day_note"`
	BudgetPlanned *int               `json:"budget_planned"`
	BudgetSpent   *int               `json:"budget_spent"`
	Items         []ItemResponse     `json:"items"`
}

// ItemResponse is one scheduled slot of a day.
type ItemResponse struct {
	ItemID    uuid.UUID  `json:"item_id"`
	StartTime string     `json:"start_time"`
	EndTime   string     `json:"end_time"`
	PlaceID   *uuid.UUID `json:"place_id"`
	PlaceName *string    `json:"place_name"`
}

// GetTimeline handles GET /trips/{tripId}/timeline.
func (s *Server) GetTimeline(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}

	days, err := s.timeline.Timeline(r.Context(), tripID, caller)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, timelineToResponse(tripID, days))
}

// AddTimelineItem handles POST /trips/{tripId}/timeline.
// Answers 409 when the slot overlaps another item on the same day.
func (s *Server) AddTimelineItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	var body TimelineItemRequest
	if _, ok := bindBody(w, r, &body); !ok {
		return
	}
	start, end, err := parseTimes(body.StartTime, body.EndTime)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	id, err := s.timeline.AddItem(r.Context(), tripID, caller, service.AddItemInput{
		DayDate: dateOrNil(body.DayDate),
		Start:   start,
		End:     end,
		PlaceID: body.PlaceID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatedItemResponse{ItemID: id})
}

// UpdateTimelineItem handles PUT /trips/{tripId}/timeline/{itemId}.
// A day_date naming another day of the trip moves the item there. An
// absent place_id keeps the stored place; an explicit null clears it.
func (s *Server) UpdateTimelineItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}
	var body TimelineItemRequest
	raw, ok := bindBody(w, r, &body)
	if !ok {
		return
	}
	start, end, err := parseTimes(body.StartTime, body.EndTime)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	placeID, err := optionalPlace(raw, body.PlaceID)
	if err != nil {
		writeBadRequest(w, "malformed JSON body")
		return
	}

	_, err = s.timeline.UpdateItem(r.Context(), tripID, itemID, caller, service.UpdateItemInput{
		DayDate: dateOrNil(body.DayDate),
		Start:   start,
		End:     end,
		PlaceID: placeID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTimelineItem handles DELETE /timeline/{itemId}.
// Ownership is checked through the trip the item belongs to.
func (s *Server) DeleteTimelineItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}

	if err := s.timeline.DeleteItem(r.Context(), itemID, caller); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkUpdateDays handles PUT /trips/{tripId}/days.
// Either every listed day is updated or none is.
func (s *Server) BulkUpdateDays(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	var body BulkDaysRequest
	if _, ok := bindBody(w, r, &body); !ok {
		return
	}

	updates := make([]domain.DayUpdate, len(body.Days))
	for i, d := range body.Days {
		updates[i] = domain.DayUpdate{
			DayID:         d.DayID,
			ThemeTitle:    d.ThemeTitle,
			DayNote:       d.DayNote,
			BudgetPlanned: d.BudgetPlanned,
			BudgetSpent:   d.BudgetSpent,
		}
	}
	if _, err := s.timeline.BulkUpdateDays(r.Context(), tripID, caller, updates); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

// parseTimes parses the optional start and end times. Missing values stay
// nil so the service reports them as required.
func parseTimes(start, end *string) (*domain.TimeOfDay, *domain.TimeOfDay, error) {
	s, err := parseTime(start)
	if err != nil {
		return nil, nil, err
	}
	e, err := parseTime(end)
	if err != nil {
		return nil, nil, err
	}
	return s, e, nil
}

func parseTime(v *string) (*domain.TimeOfDay, error) {
	if v == nil {
		return nil, nil
	}
	t, err := domain.ParseTimeOfDay(*v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func dateOrNil(d *openapi_types.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// optionalPlace distinguishes an absent place_id from an explicit null,
// which decode into the same nil pointer.
func optionalPlace(raw []byte, decoded *uuid.UUID) (domain.Optional[uuid.UUID], error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Optional[uuid.UUID]{}, err
	}
	if _, present := fields["place_id"]; !present {
		return domain.Optional[uuid.UUID]{}, nil
	}
	if decoded == nil {
		return domain.Null[uuid.UUID](), nil
	}
	return domain.Some(*decoded), nil
}

func timelineToResponse(tripID uuid.UUID, days []domain.DayTimeline) TimelineResponse {
	out := TimelineResponse{TripID: tripID, Days: make([]DayResponse, len(days))}
	for i, d := range days {
		items := make([]ItemResponse, len(d.Entries))
		for j, e := range d.Entries {
			items[j] = ItemResponse{
				ItemID:    e.Item.ID,
				StartTime: e.Item.Start.String(),
				EndTime:   e.Item.End.String(),
				PlaceID:   e.Item.PlaceID,
				PlaceName: e.PlaceName,
			}
		}
		out.Days[i] = DayResponse{
			DayID:         d.Day.ID,
			Date:          openapi_types.Date{Time: d.Day.Date},
			DayIndex:      d.Day.DayIndex,
			ThemeTitle:    d.Day.ThemeTitle,
			DayNote:       d.Day.DayNote,
			BudgetPlanned: d.Day.BudgetPlanned,
			BudgetSpent:   d.Day.BudgetSpent,
			Items:         items,
		}
	}
	return out
}
