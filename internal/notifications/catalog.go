package notifications

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/lovpen/lovpen-server/internal/waitlist"
)

// Catalog keys. Queue messages take (position, total, weeks).
const (
	keyGenericTitle   = "waitlist.generic.title"
	keyGenericMessage = "waitlist.generic.message"

	keyExistingTitle          = "waitlist.existing.title"
	keyExistingMessage        = "waitlist.existing.message"
	keyExistingMessageNoQueue = "waitlist.existing.message_no_queue"

	keyFailureTitle   = "waitlist.failure.title"
	keyFailureMessage = "waitlist.failure.message"

	keyActionShare       = "waitlist.action.share"
	keyActionTrackStatus = "waitlist.action.track_status"
	keyActionFeedback    = "waitlist.action.feedback"
	keyShareText         = "waitlist.share.text"
	keyFeedbackSubject   = "waitlist.feedback.subject"

	keyTierTitlePrefix   = "waitlist.tier.title."
	keyTierMessagePrefix = "waitlist.tier.message."

	weeksVar      = "weeks"
	weeksArgIndex = 3
)

func tierTitleKey(tier waitlist.Tier) string   { return keyTierTitlePrefix + string(tier) }
func tierMessageKey(tier waitlist.Tier) string { return keyTierMessagePrefix + string(tier) }

type entry struct {
	key string
	en  string
	zh  string
}

var plainEntries = []entry{
	{keyGenericTitle, "Application received", "申请已提交"},
	{keyGenericMessage, "Thanks for your interest in LovPen. We'll be in touch soon.", "感谢您对 LovPen 的关注，我们会尽快与您联系。"},
	{keyExistingTitle, "You're already on the list", "您已在等候名单中"},
	{keyExistingMessage, "This email is already registered. Current position: #%[1]d of %[2]d.", "该邮箱已登记，当前排名第 %[1]d 位（共 %[2]d 人）。"},
	{keyExistingMessageNoQueue, "This email is already registered. We'll be in touch soon.", "该邮箱已登记，我们会尽快与您联系。"},
	{keyFailureTitle, "Something went wrong", "提交失败"},
	{keyFailureMessage, "We couldn't save your application. Please try again later.", "暂时无法保存您的申请，请稍后重试。"},
	{keyActionShare, "Share with friends", "分享给好友"},
	{keyActionTrackStatus, "Track status", "查看进度"},
	{keyActionFeedback, "Send feedback", "发送反馈"},
	{keyShareText, "I just joined the LovPen waitlist!", "我刚刚加入了 LovPen 等候名单！"},
	{keyFeedbackSubject, "LovPen waitlist feedback", "LovPen 等候名单反馈"},
	{tierTitleKey(waitlist.TierPriority), "You're in the priority queue!", "恭喜！您已进入优先队列"},
	{tierTitleKey(waitlist.TierRegular), "You're on the waitlist", "已成功加入等候名单"},
	{tierTitleKey(waitlist.TierExtended), "Thanks for joining", "感谢您的加入"},
}

var queueEntries = []entry{
	{
		tierMessageKey(waitlist.TierPriority),
		"You're #%[1]d of %[2]d. Expect access in about %[3]d ${weeks}.",
		"您排在第 %[1]d 位（共 %[2]d 人），预计约 %[3]d 周内获得访问权限。",
	},
	{
		tierMessageKey(waitlist.TierRegular),
		"You're #%[1]d of %[2]d. We'll reach out in about %[3]d ${weeks}.",
		"您排在第 %[1]d 位（共 %[2]d 人），我们将在约 %[3]d 周内与您联系。",
	},
	{
		tierMessageKey(waitlist.TierExtended),
		"You're #%[1]d of %[2]d. Access is expanding gradually, expect about %[3]d ${weeks}. Tell us about your use case to help us prioritize.",
		"您排在第 %[1]d 位（共 %[2]d 人），我们正在逐步开放，预计约 %[3]d 周。欢迎告诉我们您的使用场景。",
	},
}

func newCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.Chinese))
	for _, e := range plainEntries {
		if err := b.SetString(language.English, e.key, e.en); err != nil {
			return nil, err
		}
		if err := b.SetString(language.Chinese, e.key, e.zh); err != nil {
			return nil, err
		}
	}
	for _, e := range queueEntries {
		if err := b.Set(language.English, e.key,
			catalog.Var(weeksVar, plural.Selectf(weeksArgIndex, "%d", "one", "week", "other", "weeks")),
			catalog.String(e.en),
		); err != nil {
			return nil, err
		}
		if err := b.SetString(language.Chinese, e.key, e.zh); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// printers holds one printer per supported locale.
type printers map[Locale]*message.Printer

func newPrinters(cat catalog.Catalog) printers {
	return printers{
		LocaleZH: message.NewPrinter(LocaleZH.Tag(), message.Catalog(cat)),
		LocaleEN: message.NewPrinter(LocaleEN.Tag(), message.Catalog(cat)),
	}
}

func (p printers) sprintf(locale Locale, key string, args ...any) string {
	printer, ok := p[locale]
	if !ok {
		printer = p[LocaleZH]
	}
	return printer.Sprintf(key, args...)
}
