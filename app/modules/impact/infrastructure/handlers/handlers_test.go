package impacthandlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	authdomain "github.com/terrapulse/impact-service/app/modules/auth/domain"
	impactservice "github.com/terrapulse/impact-service/app/modules/impact/application"
	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
)

var testSession = authdomain.Session{UserID: "user-1", DisplayName: "Ada"}

func newTestHandlers(svc *FakeService) Handlers {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewImpactHandlers(svc, logger, noop.NewTracerProvider().Tracer("test"))
}

func newRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	return req.WithContext(authdomain.NewContext(req.Context(), testSession))
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}

func TestHandleSubmitActivity(t *testing.T) {
	day := time.Date(2026, 4, 14, 15, 0, 0, 0, time.UTC)
	forest, _ := impactdomain.LookupBadge(impactdomain.BadgeForestBuilder)

	tests := []struct {
		name         string
		body         string
		setupService func(s *FakeService)
		wantStatus   int
		verify       func(t *testing.T, rr *httptest.ResponseRecorder, s *FakeService)
	}{
		{
			name: "confirmed submission",
			body: `{"activity_type":"Tree Planting","quantity":50,"location":"North ridge"}`,
			setupService: func(s *FakeService) {
				s.SubmitActivityFunc = func(_ context.Context, session authdomain.Session, in impactdomain.ActivityInput) (*impactservice.SubmissionResult, error) {
					assert.Equal(t, "user-1", session.UserID)
					assert.Equal(t, impactdomain.ActivityTreePlanting, in.Type)
					assert.Equal(t, 50, in.Quantity)
					assert.Equal(t, "North ridge", in.Location)
					return &impactservice.SubmissionResult{
						Status:       impactservice.StatusConfirmed,
						Activity:     impactdomain.Activity{ID: uuid.New(), Type: in.Type, Quantity: 50, PointsEarned: 500, Timestamp: day},
						PointsEarned: 500,
						Stats:        impactdomain.UserStats{TotalPoints: 500, CurrentStreak: 1, LongestStreak: 1, LastActivityDate: day},
						Level:        impactdomain.LevelFor(500),
						Ranking:      impactdomain.Ranking{SelfRank: 5},
						Celebrations: &impactservice.Celebrations{UnlockedBadges: []impactdomain.BadgeRule{forest}, LeveledUp: true},
					}, nil
				}
			},
			wantStatus: http.StatusCreated,
			verify: func(t *testing.T, rr *httptest.ResponseRecorder, _ *FakeService) {
				body := decodeBody[submissionResponse](t, rr)
				assert.Equal(t, impactservice.StatusConfirmed, body.Status)
				assert.Equal(t, 500, body.PointsEarned)
				assert.Equal(t, "2026-04-14", body.Stats.LastActivityDate)
				assert.Equal(t, 2, body.Level.Level)
				require.NotNil(t, body.Celebrations)
				require.Len(t, body.Celebrations.UnlockedBadges, 1)
				assert.Equal(t, "forest_builder", body.Celebrations.UnlockedBadges[0].ID)
				assert.Equal(t, "trees", body.Activity.Unit)
			},
		},
		{
			name: "unconfirmed submission",
			body: `{"activity_type":"composting","quantity":2}`,
			setupService: func(s *FakeService) {
				s.SubmitActivityFunc = func(context.Context, authdomain.Session, impactdomain.ActivityInput) (*impactservice.SubmissionResult, error) {
					return &impactservice.SubmissionResult{Status: impactservice.StatusUnconfirmed, ReconcileScheduled: true}, nil
				}
			},
			wantStatus: http.StatusAccepted,
			verify: func(t *testing.T, rr *httptest.ResponseRecorder, _ *FakeService) {
				body := decodeBody[submissionResponse](t, rr)
				assert.Equal(t, impactservice.StatusUnconfirmed, body.Status)
				assert.Nil(t, body.Celebrations)
				assert.True(t, body.ReconcileScheduled)
			},
		},
		{
			name:       "malformed json",
			body:       `{"activity_type":`,
			wantStatus: http.StatusBadRequest,
			verify: func(t *testing.T, _ *httptest.ResponseRecorder, s *FakeService) {
				assert.Empty(t, s.Trace())
			},
		},
		{
			name:       "unknown activity type",
			body:       `{"activity_type":"mining","quantity":1}`,
			wantStatus: http.StatusBadRequest,
			verify: func(t *testing.T, rr *httptest.ResponseRecorder, s *FakeService) {
				body := decodeBody[errorResponse](t, rr)
				assert.Equal(t, "activity_type", body.Field)
				assert.Empty(t, s.Trace())
			},
		},
		{
			name: "validation error from service",
			body: `{"activity_type":"tree_planting","quantity":0}`,
			setupService: func(s *FakeService) {
				s.SubmitActivityFunc = func(context.Context, authdomain.Session, impactdomain.ActivityInput) (*impactservice.SubmissionResult, error) {
					return nil, &impactdomain.ValidationError{Field: "quantity", Reason: "must be at least 1"}
				}
			},
			wantStatus: http.StatusBadRequest,
			verify: func(t *testing.T, rr *httptest.ResponseRecorder, _ *FakeService) {
				body := decodeBody[errorResponse](t, rr)
				assert.Equal(t, "quantity", body.Field)
				assert.False(t, body.Retryable)
			},
		},
		{
			name: "persistence error",
			body: `{"activity_type":"tree_planting","quantity":1}`,
			setupService: func(s *FakeService) {
				s.SubmitActivityFunc = func(context.Context, authdomain.Session, impactdomain.ActivityInput) (*impactservice.SubmissionResult, error) {
					return nil, &impactservice.PersistenceError{Op: "SubmitActivity", Err: context.DeadlineExceeded}
				}
			},
			wantStatus: http.StatusServiceUnavailable,
			verify: func(t *testing.T, rr *httptest.ResponseRecorder, _ *FakeService) {
				body := decodeBody[errorResponse](t, rr)
				assert.True(t, body.Retryable)
			},
		},
		{
			name: "unexpected error",
			body: `{"activity_type":"tree_planting","quantity":1}`,
			setupService: func(s *FakeService) {
				s.SubmitActivityFunc = func(context.Context, authdomain.Session, impactdomain.ActivityInput) (*impactservice.SubmissionResult, error) {
					return nil, errors.New("boom")
				}
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &FakeService{}
			if tt.setupService != nil {
				tt.setupService(svc)
			}
			rr := httptest.NewRecorder()
			newTestHandlers(svc).HandleSubmitActivity(rr, newRequest(http.MethodPost, "/api/impact/activities", tt.body))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.verify != nil {
				tt.verify(t, rr, svc)
			}
		})
	}
}

func TestHandlersRequireSession(t *testing.T) {
	h := newTestHandlers(&FakeService{})
	for name, fn := range map[string]http.HandlerFunc{
		"submit":      h.HandleSubmitActivity,
		"list":        h.HandleListActivities,
		"export":      h.HandleExportActivities,
		"progress":    h.HandleProgress,
		"badges":      h.HandleBadges,
		"leaderboard": h.HandleLeaderboard,
		"chart":       h.HandlePointsChart,
		"profile":     h.HandleUpdateProfile,
	} {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			fn(rr, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestHandleListActivities(t *testing.T) {
	t.Run("passes filter and limit", func(t *testing.T) {
		svc := &FakeService{
			ListActivitiesFunc: func(_ context.Context, _ authdomain.Session, q impactservice.HistoryQuery) ([]impactdomain.Activity, error) {
				assert.Equal(t, "week", q.Filter)
				assert.Equal(t, 5, q.Limit)
				return []impactdomain.Activity{{ID: uuid.New(), Type: impactdomain.ActivitySoilTesting, Quantity: 2, PointsEarned: 20}}, nil
			},
		}
		rr := httptest.NewRecorder()
		newTestHandlers(svc).HandleListActivities(rr, newRequest(http.MethodGet, "/api/impact/activities?filter=week&limit=5", ""))

		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody[[]activityResponse](t, rr)
		require.Len(t, body, 1)
		assert.Equal(t, "soil_testing", body[0].ActivityType)
		assert.Equal(t, 20, body[0].PointsEarned)
	})

	t.Run("bad limit", func(t *testing.T) {
		svc := &FakeService{}
		rr := httptest.NewRecorder()
		newTestHandlers(svc).HandleListActivities(rr, newRequest(http.MethodGet, "/api/impact/activities?limit=lots", ""))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, svc.Trace())
	})

	t.Run("unparseable since", func(t *testing.T) {
		svc := &FakeService{
			ListActivitiesFunc: func(context.Context, authdomain.Session, impactservice.HistoryQuery) ([]impactdomain.Activity, error) {
				return nil, &impactdomain.ValidationError{Field: "since", Reason: "cannot parse"}
			},
		}
		rr := httptest.NewRecorder()
		newTestHandlers(svc).HandleListActivities(rr, newRequest(http.MethodGet, "/api/impact/activities?filter=whenever", ""))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "since", decodeBody[errorResponse](t, rr).Field)
	})

	t.Run("empty history encodes as array", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newTestHandlers(&FakeService{}).HandleListActivities(rr, newRequest(http.MethodGet, "/api/impact/activities", ""))
		assert.JSONEq(t, `[]`, rr.Body.String())
	})
}

func TestHandleExportActivities(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantFormat impactservice.ExportFormat
		err        error
		wantStatus int
	}{
		{name: "default csv", query: "", wantFormat: impactservice.ExportCSV, wantStatus: http.StatusOK},
		{name: "xlsx upper case", query: "?format=XLSX", wantFormat: impactservice.ExportXLSX, wantStatus: http.StatusOK},
		{name: "unsupported", query: "?format=pdf", wantFormat: "pdf", err: impactservice.ErrUnsupportedFormat, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &FakeService{
				ExportActivitiesFunc: func(_ context.Context, _ authdomain.Session, format impactservice.ExportFormat) (*impactservice.Export, error) {
					assert.Equal(t, tt.wantFormat, format)
					if tt.err != nil {
						return nil, tt.err
					}
					return &impactservice.Export{Filename: "terrapulse-activities-20260414." + string(format), ContentType: "application/octet-stream", Data: []byte("data")}, nil
				},
			}
			rr := httptest.NewRecorder()
			newTestHandlers(svc).HandleExportActivities(rr, newRequest(http.MethodGet, "/api/impact/activities/export"+tt.query, ""))

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.err == nil {
				assert.Contains(t, rr.Header().Get("Content-Disposition"), "terrapulse-activities-20260414")
				assert.Equal(t, "data", rr.Body.String())
			}
		})
	}
}

func TestHandleProgress(t *testing.T) {
	svc := &FakeService{
		LoadProgressFunc: func(_ context.Context, session authdomain.Session) (*impactservice.ProgressView, error) {
			return &impactservice.ProgressView{
				UserID:        session.UserID,
				DisplayName:   "Ada",
				Stats:         impactdomain.UserStats{TotalPoints: 600, CurrentStreak: 1, LongestStreak: 3},
				Level:         impactdomain.LevelFor(600),
				Totals:        map[impactdomain.ActivityType]int{impactdomain.ActivityTreePlanting: 50},
				Rank:          5,
				UnlockedCount: 2,
			}, nil
		},
	}
	rr := httptest.NewRecorder()
	newTestHandlers(svc).HandleProgress(rr, newRequest(http.MethodGet, "/api/impact/progress", ""))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[progressResponse](t, rr)
	assert.Equal(t, 600, body.Stats.TotalPoints)
	assert.Equal(t, 50, body.Totals["tree_planting"])
	assert.Equal(t, 0, body.Totals["water_conservation"])
	assert.Len(t, body.Totals, len(impactdomain.ActivityTypes))
	assert.Equal(t, 2, body.UnlockedBadges)
	assert.Empty(t, body.Stats.LastActivityDate)
}

func TestHandleBadges(t *testing.T) {
	unlockedAt := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	forest, _ := impactdomain.LookupBadge(impactdomain.BadgeForestBuilder)
	water, _ := impactdomain.LookupBadge(impactdomain.BadgeWaterWarrior)
	svc := &FakeService{
		AchievementsFunc: func(context.Context, authdomain.Session) (*impactservice.AchievementsView, error) {
			return &impactservice.AchievementsView{
				Unlocked: []impactdomain.BadgeStatus{{Rule: forest, Unlocked: true, UnlockedAt: unlockedAt, Current: 50, Progress: 100}},
				Locked:   []impactdomain.BadgeStatus{{Rule: water, Current: 250, Progress: 25}},
			}, nil
		},
	}
	rr := httptest.NewRecorder()
	newTestHandlers(svc).HandleBadges(rr, newRequest(http.MethodGet, "/api/impact/badges", ""))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[achievementsResponse](t, rr)
	require.Len(t, body.Unlocked, 1)
	require.NotNil(t, body.Unlocked[0].UnlockedAt)
	assert.True(t, unlockedAt.Equal(*body.Unlocked[0].UnlockedAt))
	require.Len(t, body.Locked, 1)
	assert.Nil(t, body.Locked[0].UnlockedAt)
	assert.Equal(t, 25, body.Locked[0].Progress)
}

func TestHandleLeaderboard(t *testing.T) {
	svc := &FakeService{
		LeaderboardFunc: func(context.Context, authdomain.Session) (*impactdomain.Ranking, error) {
			r := impactdomain.BuildRanking(impactdomain.DefaultRoster(), impactdomain.LeaderboardEntry{UserID: "user-1", DisplayName: "Ada", Points: 5000, IsSelf: true}, 0)
			return &r, nil
		},
	}
	rr := httptest.NewRecorder()
	newTestHandlers(svc).HandleLeaderboard(rr, newRequest(http.MethodGet, "/api/impact/leaderboard", ""))

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[leaderboardResponse](t, rr)
	require.Len(t, body.Entries, 5)
	assert.Equal(t, 2, body.SelfRank)
	assert.Equal(t, "Sarah Green", body.Entries[0].DisplayName)
	assert.True(t, body.Entries[1].IsSelf)
}

func TestHandlePointsChart(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newTestHandlers(&FakeService{}).HandlePointsChart(rr, newRequest(http.MethodGet, "/api/impact/chart/points.png", ""))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
		assert.Equal(t, "\x89PNG", rr.Body.String())
	})

	t.Run("storage down", func(t *testing.T) {
		svc := &FakeService{
			RenderPointsChartFunc: func(context.Context, authdomain.Session) ([]byte, error) {
				return nil, &impactservice.PersistenceError{Op: "RenderPointsChart", Err: errors.New("conn refused")}
			},
		}
		rr := httptest.NewRecorder()
		newTestHandlers(svc).HandlePointsChart(rr, newRequest(http.MethodGet, "/api/impact/chart/points.png", ""))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestHandleUpdateProfile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var got string
		svc := &FakeService{
			UpdateProfileFunc: func(_ context.Context, _ authdomain.Session, name string) error {
				got = name
				return nil
			},
		}
		rr := httptest.NewRecorder()
		newTestHandlers(svc).HandleUpdateProfile(rr, newRequest(http.MethodPut, "/api/impact/profile", `{"display_name":"Ada L."}`))
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "Ada L.", got)
	})

	t.Run("invalid name", func(t *testing.T) {
		svc := &FakeService{
			UpdateProfileFunc: func(context.Context, authdomain.Session, string) error {
				return &impactdomain.ValidationError{Field: "display_name", Reason: "is required"}
			},
		}
		rr := httptest.NewRecorder()
		newTestHandlers(svc).HandleUpdateProfile(rr, newRequest(http.MethodPut, "/api/impact/profile", `{"display_name":""}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "display_name", decodeBody[errorResponse](t, rr).Field)
	})
}
