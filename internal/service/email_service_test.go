package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/loyaltycore/internal/i18n"
	"github.com/loyaltycore/internal/models"
)

func TestBuildRewardPointsContent(t *testing.T) {
	tests := []struct {
		name                string
		locale              string
		input               RewardPointsEmailInput
		wantSubjectContains []string
		wantBodyContains    []string
	}{
		{
			name:   "referral_zh",
			locale: i18n.LocaleZH,
			input: RewardPointsEmailInput{
				EntryType: models.PointsEntryReferral,
				Points:    1000,
				Balance:   2100,
			},
			wantSubjectContains: []string{"积分变动通知"},
			wantBodyContains: []string{
				"+1000",
				"当前余额 2100",
				"推荐奖励",
			},
		},
		{
			name:   "redemption_en",
			locale: i18n.LocaleEN,
			input: RewardPointsEmailInput{
				EntryType: models.PointsEntryRedemption,
				Points:    -1500,
				Balance:   600,
			},
			wantSubjectContains: []string{"Points balance update"},
			wantBodyContains: []string{
				"-1500",
				"current balance 600",
				"Checkout redemption",
			},
		},
		{
			name:   "monthly_bonus_tw",
			locale: i18n.LocaleTW,
			input: RewardPointsEmailInput{
				EntryType: models.PointsEntryBonus,
				Points:    500,
				Balance:   3200,
			},
			wantSubjectContains: []string{"月度業績獎勵到賬"},
			wantBodyContains: []string{
				"500",
				"當前餘額 3200",
			},
		},
		{
			name:   "inactivity_penalty_en",
			locale: i18n.LocaleEN,
			input: RewardPointsEmailInput{
				EntryType:        models.PointsEntryPenalty,
				Points:           210,
				Balance:          1890,
				InactivityMonths: 3,
			},
			wantSubjectContains: []string{"Account inactivity notice"},
			wantBodyContains: []string{
				"over 3 months",
				"210 points were deducted",
				"current balance 1890",
			},
		},
		{
			name:   "unknown_entry_falls_back_to_raw_type",
			locale: i18n.LocaleEN,
			input: RewardPointsEmailInput{
				EntryType: "mystery",
				Points:    10,
				Balance:   10,
			},
			wantSubjectContains: []string{"Points balance update"},
			wantBodyContains:    []string{"mystery"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body := buildRewardPointsContent(tt.input, tt.locale)
			for _, expected := range tt.wantSubjectContains {
				if !strings.Contains(subject, expected) {
					t.Fatalf("subject missing %q: %s", expected, subject)
				}
			}
			for _, expected := range tt.wantBodyContains {
				if !strings.Contains(body, expected) {
					t.Fatalf("body missing %q: %s", expected, body)
				}
			}
		})
	}
}

func TestNormalizeLocale(t *testing.T) {
	cases := map[string]string{
		"zh-TW": i18n.LocaleTW,
		"zh-HK": i18n.LocaleTW,
		"en-US": i18n.LocaleEN,
		"EN":    i18n.LocaleEN,
		"zh-CN": i18n.LocaleZH,
		"":      i18n.LocaleZH,
		"fr-FR": i18n.LocaleZH,
	}
	for input, want := range cases {
		if got := normalizeLocale(input); got != want {
			t.Fatalf("normalizeLocale(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestIsEmailRecipientRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "smtp_550_no_such_recipient",
			err:  errors.New("550 No such recipient here"),
			want: true,
		},
		{
			name: "smtp_user_unknown",
			err:  errors.New("SMTP 5.1.1 user unknown"),
			want: true,
		},
		{
			name: "smtp_550_mailbox_unavailable",
			err:  errors.New("550 mailbox unavailable"),
			want: true,
		},
		{
			name: "network_timeout",
			err:  errors.New("dial tcp timeout"),
			want: false,
		},
		{
			name: "nil_error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEmailRecipientRejected(tt.err); got != tt.want {
				t.Fatalf("isEmailRecipientRejected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeEmailSendError(t *testing.T) {
	rejected := errors.New("550 No such recipient here")
	if got := normalizeEmailSendError(rejected); !errors.Is(got, ErrEmailRecipientRejected) {
		t.Fatalf("normalizeEmailSendError() expected ErrEmailRecipientRejected, got %v", got)
	}

	networkErr := errors.New("dial tcp timeout")
	if got := normalizeEmailSendError(networkErr); !errors.Is(got, networkErr) {
		t.Fatalf("normalizeEmailSendError() should keep original error, got %v", got)
	}

	if got := normalizeEmailSendError(nil); got != nil {
		t.Fatalf("normalizeEmailSendError(nil) should be nil, got %v", got)
	}
}
