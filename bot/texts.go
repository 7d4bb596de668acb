package bot

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"cafebot/models"
)

var welcomeVariants = []string{
	"Hey %s! Make yourself at home — let's find a coffee for your mood.",
	"%s, welcome back! Pick a drink, we'll make it with care ☕️",
	"Hi %s! Time for a tasty break?",
}

var choiceVariants = []string{
	"Great choice 👍",
	"A classic that never lets you down.",
	"Nice! One of the menu hits.",
}

var finishVariants = []string{
	"Thanks for the order, %s! See you soon.",
	"Order received, %s. May this coffee make your day better.",
}

func welcomeText(name string) string {
	return fmt.Sprintf(welcomeVariants[rand.Intn(len(welcomeVariants))], name)
}

func choiceText() string {
	return choiceVariants[rand.Intn(len(choiceVariants))]
}

func finishText(name string) string {
	return fmt.Sprintf(finishVariants[rand.Intn(len(finishVariants))], name)
}

func workStatus(t *models.TenantContext, now time.Time) string {
	if t.OpenAt(now) {
		return fmt.Sprintf("🟢 Open until %02d:00", t.WorkEnd)
	}
	return fmt.Sprintf("🔴 Closed\n🕐 Opening at %02d:00", t.WorkStart)
}

func menuLine(menu map[string]int64) string {
	if len(menu) == 0 {
		return "The menu is still being set up."
	}
	parts := make([]string, 0, len(menu))
	for _, name := range menuNames(menu) {
		parts = append(parts, fmt.Sprintf("%s %d", name, menu[name]))
	}
	return strings.Join(parts, " • ")
}

func closedText(t *models.TenantContext, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔒 %s is closed right now\n\n", t.Title)
	b.WriteString(workStatus(t, now))
	b.WriteString("\n\n☕️ Menu:\n")
	b.WriteString(menuLine(t.Menu))
	if t.Address != "" {
		fmt.Fprintf(&b, "\n\n📍 %s", t.Address)
	}
	if t.Phone != "" {
		fmt.Fprintf(&b, "\n📞 %s", t.Phone)
	}
	return b.String()
}

func greetingText(t *models.TenantContext, name string, now time.Time) string {
	var b strings.Builder
	b.WriteString(welcomeText(name))
	fmt.Fprintf(&b, "\n\n%s\n", t.Title)
	fmt.Fprintf(&b, "🕐 Local time: %s\n", now.Format("15:04"))
	b.WriteString(workStatus(t, now))
	b.WriteString("\n\n☕️ Pick a drink:")
	return b.String()
}

func hoursText(t *models.TenantContext, now time.Time) string {
	return fmt.Sprintf("⏰ Working hours: %s\n%s", t.HoursLine(), workStatus(t, now))
}

func contactText(t *models.TenantContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", t.Title)
	if t.Address != "" {
		fmt.Fprintf(&b, "📍 %s\n", t.Address)
	}
	if t.Phone != "" {
		fmt.Fprintf(&b, "📞 %s\n", t.Phone)
	}
	return b.String()
}
