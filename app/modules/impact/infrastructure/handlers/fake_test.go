package impacthandlers

import (
	"context"

	authdomain "github.com/terrapulse/impact-service/app/modules/auth/domain"
	impactservice "github.com/terrapulse/impact-service/app/modules/impact/application"
	impactdomain "github.com/terrapulse/impact-service/app/modules/impact/domain"
)

// ------------------------
// Fake Service
// ------------------------

type FakeService struct {
	trace []string

	SubmitActivityFunc    func(ctx context.Context, session authdomain.Session, input impactdomain.ActivityInput) (*impactservice.SubmissionResult, error)
	LoadProgressFunc      func(ctx context.Context, session authdomain.Session) (*impactservice.ProgressView, error)
	ListActivitiesFunc    func(ctx context.Context, session authdomain.Session, query impactservice.HistoryQuery) ([]impactdomain.Activity, error)
	AchievementsFunc      func(ctx context.Context, session authdomain.Session) (*impactservice.AchievementsView, error)
	LeaderboardFunc       func(ctx context.Context, session authdomain.Session) (*impactdomain.Ranking, error)
	ExportActivitiesFunc  func(ctx context.Context, session authdomain.Session, format impactservice.ExportFormat) (*impactservice.Export, error)
	RenderPointsChartFunc func(ctx context.Context, session authdomain.Session) ([]byte, error)
	UpdateProfileFunc     func(ctx context.Context, session authdomain.Session, displayName string) error
	ReconcileUserFunc     func(ctx context.Context, userID string) error
}

func (f *FakeService) Trace() []string {
	return f.trace
}

func (f *FakeService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeService) SubmitActivity(ctx context.Context, session authdomain.Session, input impactdomain.ActivityInput) (*impactservice.SubmissionResult, error) {
	f.record("SubmitActivity")
	if f.SubmitActivityFunc != nil {
		return f.SubmitActivityFunc(ctx, session, input)
	}
	return &impactservice.SubmissionResult{Status: impactservice.StatusConfirmed}, nil
}

func (f *FakeService) LoadProgress(ctx context.Context, session authdomain.Session) (*impactservice.ProgressView, error) {
	f.record("LoadProgress")
	if f.LoadProgressFunc != nil {
		return f.LoadProgressFunc(ctx, session)
	}
	return &impactservice.ProgressView{UserID: session.UserID}, nil
}

func (f *FakeService) ListActivities(ctx context.Context, session authdomain.Session, query impactservice.HistoryQuery) ([]impactdomain.Activity, error) {
	f.record("ListActivities")
	if f.ListActivitiesFunc != nil {
		return f.ListActivitiesFunc(ctx, session, query)
	}
	return nil, nil
}

func (f *FakeService) Achievements(ctx context.Context, session authdomain.Session) (*impactservice.AchievementsView, error) {
	f.record("Achievements")
	if f.AchievementsFunc != nil {
		return f.AchievementsFunc(ctx, session)
	}
	return &impactservice.AchievementsView{}, nil
}

func (f *FakeService) Leaderboard(ctx context.Context, session authdomain.Session) (*impactdomain.Ranking, error) {
	f.record("Leaderboard")
	if f.LeaderboardFunc != nil {
		return f.LeaderboardFunc(ctx, session)
	}
	return &impactdomain.Ranking{}, nil
}

func (f *FakeService) ExportActivities(ctx context.Context, session authdomain.Session, format impactservice.ExportFormat) (*impactservice.Export, error) {
	f.record("ExportActivities")
	if f.ExportActivitiesFunc != nil {
		return f.ExportActivitiesFunc(ctx, session, format)
	}
	return &impactservice.Export{Filename: "export.csv", ContentType: "text/csv", Data: []byte("Date\n")}, nil
}

func (f *FakeService) RenderPointsChart(ctx context.Context, session authdomain.Session) ([]byte, error) {
	f.record("RenderPointsChart")
	if f.RenderPointsChartFunc != nil {
		return f.RenderPointsChartFunc(ctx, session)
	}
	return []byte("\x89PNG"), nil
}

func (f *FakeService) UpdateProfile(ctx context.Context, session authdomain.Session, displayName string) error {
	f.record("UpdateProfile")
	if f.UpdateProfileFunc != nil {
		return f.UpdateProfileFunc(ctx, session, displayName)
	}
	return nil
}

func (f *FakeService) ReconcileUser(ctx context.Context, userID string) error {
	f.record("ReconcileUser")
	if f.ReconcileUserFunc != nil {
		return f.ReconcileUserFunc(ctx, userID)
	}
	return nil
}

var _ impactservice.Service = (*FakeService)(nil)
