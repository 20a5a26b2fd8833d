package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lovpen/lovpen-server/internal/waitlist"
)

type countingDismisser struct{ calls int }

func (d *countingDismisser) Dismiss() { d.calls++ }

func intPtr(v int) *int { return &v }

func mustBuilder(t *testing.T, opts ...BuilderOption) *Builder {
	t.Helper()
	b, err := NewBuilder(opts...)
	require.NoError(t, err)
	return b
}

func TestBuild_PriorityCelebrates(t *testing.T) {
	b := mustBuilder(t)

	cfg := b.Build(Outcome{Position: intPtr(30), TotalSubmissions: 30}, "en-US")
	require.Equal(t, TypeSuccess, cfg.Type)
	require.True(t, cfg.Celebratory)
	require.Equal(t, 12000, cfg.DurationMS)
	require.Equal(t, []string{ActionShare}, cfg.ActionKeys())
	require.Equal(t, "You're in the priority queue!", cfg.Title)
	require.Contains(t, cfg.Message, "#30")
	require.Contains(t, cfg.Message, "1 week")
	require.Equal(t, "Share with friends", cfg.Actions[0].Label)
}

func TestBuild_RegularTier(t *testing.T) {
	b := mustBuilder(t)

	cfg := b.Build(OutcomeFromQueue(&waitlist.QueuePosition{
		Position:           201,
		TotalSubmissions:   201,
		Tier:               waitlist.TierRegular,
		EstimatedWaitWeeks: 4,
	}, "tok"), "zh-CN")
	require.Equal(t, TypeInfo, cfg.Type)
	require.False(t, cfg.Celebratory)
	require.Equal(t, 8000, cfg.DurationMS)
	require.Equal(t, []string{ActionTrackStatus, ActionShare}, cfg.ActionKeys())
	require.Equal(t, "已成功加入等候名单", cfg.Title)
	require.Contains(t, cfg.Message, "201")
	require.Contains(t, cfg.Message, "4")
	require.Equal(t, "查看进度", cfg.Actions[0].Label)
}

func TestBuild_ExtendedTier(t *testing.T) {
	b := mustBuilder(t)

	cfg := b.Build(Outcome{Position: intPtr(800), TotalSubmissions: 900}, "en")
	require.Equal(t, TypeInfo, cfg.Type)
	require.Equal(t, 8000, cfg.DurationMS)
	require.False(t, cfg.Celebratory)
	require.Equal(t, []string{ActionFeedback}, cfg.ActionKeys())
	require.Contains(t, cfg.Message, "#800 of 900")
	require.Contains(t, cfg.Message, "12 weeks")
}

func TestBuild_NoPositionIsGeneric(t *testing.T) {
	b := mustBuilder(t)

	cfg := b.Build(Outcome{}, "en")
	require.Equal(t, TypeSuccess, cfg.Type)
	require.Equal(t, 6000, cfg.DurationMS)
	require.False(t, cfg.Celebratory)
	require.Empty(t, cfg.Actions)
	require.Equal(t, "Application received", cfg.Title)
}

func TestBuild_ExplicitTierWins(t *testing.T) {
	b := mustBuilder(t)

	regular := waitlist.TierRegular
	cfg := b.Build(Outcome{Position: intPtr(10), Tier: &regular, EstimatedWeeks: intPtr(3)}, "en")
	require.Equal(t, TypeInfo, cfg.Type)
	require.False(t, cfg.Celebratory, "celebration requires the priority tier")
	require.Contains(t, cfg.Message, "3 weeks")
}

func TestBuild_DefaultLocaleIsChinese(t *testing.T) {
	b := mustBuilder(t)

	cfg := b.Build(Outcome{}, "")
	require.Equal(t, "申请已提交", cfg.Title)

	cfg = b.Build(Outcome{}, "fr-FR")
	require.Equal(t, "Application received", cfg.Title)
}

func TestBuildExistingEmail(t *testing.T) {
	b := mustBuilder(t)

	cfg := b.BuildExistingEmail(Outcome{Position: intPtr(12), TotalSubmissions: 40}, "en")
	require.Equal(t, TypeInfo, cfg.Type)
	require.Equal(t, 7000, cfg.DurationMS)
	require.Empty(t, cfg.Actions)
	require.Contains(t, cfg.Message, "#12 of 40")

	cfg = b.BuildExistingEmail(Outcome{}, "zh")
	require.Equal(t, "您已在等候名单中", cfg.Title)
	require.NotContains(t, cfg.Message, "%")
}

func TestBuildFailure(t *testing.T) {
	cfg := mustBuilder(t).BuildFailure("en")
	require.Equal(t, TypeWarning, cfg.Type)
	require.NotEmpty(t, cfg.Message)
}

func TestActionsInvokeCapabilityThenDismiss(t *testing.T) {
	dismisser := &countingDismisser{}
	var shared ShareContent
	var trackedToken string
	var mailSubject string

	b := mustBuilder(t,
		WithDismisser(dismisser),
		WithShareURL("https://example.com/join"),
		WithShare(ShareFunc(func(_ context.Context, content ShareContent) error {
			shared = content
			return nil
		})),
		WithStatusTracker(StatusTrackerFunc(func(_ context.Context, token string) error {
			trackedToken = token
			return errors.New("offline")
		})),
		WithMail(MailFunc(func(_ context.Context, subject string) error {
			mailSubject = subject
			return nil
		})),
	)
	ctx := context.Background()

	regular := b.Build(Outcome{Position: intPtr(100), TrackingToken: "tok-1"}, "en")
	require.EqualError(t, regular.Actions[0].Handler(ctx), "offline")
	require.Equal(t, "tok-1", trackedToken)
	require.Equal(t, 1, dismisser.calls, "dismiss runs even when the capability fails")

	require.NoError(t, regular.Actions[1].Handler(ctx))
	require.Equal(t, "https://example.com/join", shared.URL)
	require.Equal(t, 2, dismisser.calls)

	extended := b.Build(Outcome{Position: intPtr(600)}, "en")
	require.NoError(t, extended.Actions[0].Handler(ctx))
	require.Equal(t, "LovPen waitlist feedback", mailSubject)
	require.Equal(t, 3, dismisser.calls)
}

func TestActionsWithoutCapabilitiesStillDismiss(t *testing.T) {
	dismisser := &countingDismisser{}
	b := mustBuilder(t, WithDismisser(dismisser))

	cfg := b.Build(Outcome{Position: intPtr(1)}, "en")
	require.NoError(t, cfg.Actions[0].Handler(context.Background()))
	require.Equal(t, 1, dismisser.calls)
}

func TestConfigJSONOmitsHandlers(t *testing.T) {
	cfg := mustBuilder(t).Build(Outcome{Position: intPtr(1)}, "en")

	raw, err := json.Marshal(cfg)
	require.NoError(t, err)

	var decoded struct {
		Type       string `json:"type"`
		DurationMS int    `json:"duration_ms"`
		Actions    []map[string]any
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "success", decoded.Type)
	require.Equal(t, 12000, decoded.DurationMS)
	require.Len(t, decoded.Actions, 1)
	require.Equal(t, "share", decoded.Actions[0]["key"])
	require.NotContains(t, decoded.Actions[0], "handler")
}

func TestNormalizeLocale(t *testing.T) {
	cases := map[string]Locale{
		"":       LocaleZH,
		"zh":     LocaleZH,
		"zh-CN":  LocaleZH,
		"ZH-tw":  LocaleZH,
		"en":     LocaleEN,
		"en-US":  LocaleEN,
		"ja":     LocaleEN,
		"  zh  ": LocaleZH,
	}
	for input, want := range cases {
		require.Equal(t, want, NormalizeLocale(input), "input %q", input)
	}
}

func TestLocaleFromAcceptLanguage(t *testing.T) {
	require.Equal(t, Locale(""), LocaleFromAcceptLanguage(""))
	require.Equal(t, LocaleZH, LocaleFromAcceptLanguage("zh-CN,zh;q=0.9,en;q=0.8"))
	require.Equal(t, LocaleEN, LocaleFromAcceptLanguage("en-US,en;q=0.9"))
	require.Equal(t, LocaleEN, LocaleFromAcceptLanguage("de-DE"))
}
