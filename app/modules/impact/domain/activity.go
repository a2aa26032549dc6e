package impactdomain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PointsPerUnit is the fixed multiplier applied to every activity quantity.
const PointsPerUnit = 10

// MaxQuantity caps a single submission so its points stay representable.
const MaxQuantity = 1_000_000

// MaxLocationLength bounds the optional free-text location.
const MaxLocationLength = 200

// ActivityType enumerates the loggable environmental actions.
type ActivityType string

const (
	ActivityTreePlanting      ActivityType = "tree_planting"
	ActivityComposting        ActivityType = "composting"
	ActivityWaterConservation ActivityType = "water_conservation"
	ActivitySoilTesting       ActivityType = "soil_testing"
	ActivityDataUpload        ActivityType = "data_upload"
)

// ActivityTypes lists every type in display order.
var ActivityTypes = []ActivityType{
	ActivityTreePlanting,
	ActivityComposting,
	ActivityWaterConservation,
	ActivitySoilTesting,
	ActivityDataUpload,
}

type activityTypeInfo struct {
	displayName string
	unit        string
}

var activityTypeInfos = map[ActivityType]activityTypeInfo{
	ActivityTreePlanting:      {displayName: "Tree Planting", unit: "trees"},
	ActivityComposting:        {displayName: "Composting", unit: "sessions"},
	ActivityWaterConservation: {displayName: "Water Conservation", unit: "liters"},
	ActivitySoilTesting:       {displayName: "Soil Testing", unit: "tests"},
	ActivityDataUpload:        {displayName: "Data Upload", unit: "datasets"},
}

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	_, ok := activityTypeInfos[t]
	return ok
}

func (t ActivityType) DisplayName() string { return activityTypeInfos[t].displayName }
func (t ActivityType) Unit() string        { return activityTypeInfos[t].unit }
func (t ActivityType) String() string      { return string(t) }

// ParseActivityType accepts the wire name ("tree_planting"), the display name
// ("Tree Planting") or the compact form ("TreePlanting"), case-insensitively.
func ParseActivityType(raw string) (ActivityType, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", newValidationError("activity_type", "is required")
	}
	key := normalizeTypeKey(trimmed)
	for _, t := range ActivityTypes {
		if normalizeTypeKey(string(t)) == key {
			return t, nil
		}
	}
	return "", newValidationError("activity_type", "unknown activity type %q", raw)
}

func normalizeTypeKey(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(s)
}

// PointsFor returns the points a quantity is worth.
func PointsFor(quantity int) int {
	return quantity * PointsPerUnit
}

// ActivityInput is an unvalidated submission.
type ActivityInput struct {
	Type     ActivityType
	Quantity int
	Location string
}

// Activity is an immutable ledger entry. PointsEarned is frozen at creation.
type Activity struct {
	ID           uuid.UUID
	Type         ActivityType
	Quantity     int
	Location     string
	PointsEarned int
	Timestamp    time.Time
}

// Validate checks a submission without building an Activity.
func (in ActivityInput) Validate() error {
	if in.Type == "" {
		return newValidationError("activity_type", "is required")
	}
	if !in.Type.Valid() {
		return newValidationError("activity_type", "unknown activity type %q", string(in.Type))
	}
	if in.Quantity < 1 {
		return newValidationError("quantity", "must be a whole number of at least 1, got %d", in.Quantity)
	}
	if in.Quantity > MaxQuantity {
		return newValidationError("quantity", "must be at most %d, got %d", MaxQuantity, in.Quantity)
	}
	if len(strings.TrimSpace(in.Location)) > MaxLocationLength {
		return newValidationError("location", "must be at most %d characters", MaxLocationLength)
	}
	return nil
}

// NewActivity validates input and stamps it with now.
func NewActivity(input ActivityInput, now time.Time) (Activity, error) {
	if err := input.Validate(); err != nil {
		return Activity{}, err
	}

	return Activity{
		ID:           uuid.New(),
		Type:         input.Type,
		Quantity:     input.Quantity,
		Location:     strings.TrimSpace(input.Location),
		PointsEarned: PointsFor(input.Quantity),
		Timestamp:    now,
	}, nil
}
