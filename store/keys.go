package store

import "fmt"

// Key builders. Every key the core touches is declared here.

func RateLimitKey(userID int64) string {
	return fmt.Sprintf("rate_limit:%d", userID)
}

func UserTenantKey(userID int64) string {
	return fmt.Sprintf("user_cafe:%d", userID)
}

func GroupTenantKey(chatID int64) string {
	return fmt.Sprintf("group_cafe:%d", chatID)
}

func ConversationKey(userID, chatID int64) string {
	return fmt.Sprintf("conv:%d:%d", userID, chatID)
}

func TenantProfileKey(tenantID string) string {
	return fmt.Sprintf("cafe:%s:profile", tenantID)
}

func TenantMenuKey(tenantID string) string {
	return fmt.Sprintf("cafe:%s:menu", tenantID)
}

func StaffChatKey(tenantID string) string {
	return fmt.Sprintf("cafe:%s:staff_chat", tenantID)
}

func StatsOrdersKey(tenantID string) string {
	return fmt.Sprintf("stats:%s:total_orders", tenantID)
}

func StatsRevenueKey(tenantID string) string {
	return fmt.Sprintf("stats:%s:revenue", tenantID)
}

func StatsItemsKey(tenantID string) string {
	return fmt.Sprintf("stats:%s:items", tenantID)
}

func StatsItemRevenueKey(tenantID string) string {
	return fmt.Sprintf("stats:%s:item_revenue", tenantID)
}

func CustomersKey(tenantID string) string {
	return fmt.Sprintf("customers:%s", tenantID)
}

func CustomerProfileKey(tenantID string, userID int64) string {
	return fmt.Sprintf("profile:%s:%d", tenantID, userID)
}

func DrinkFrequencyKey(tenantID string, userID int64) string {
	return fmt.Sprintf("drinks:%s:%d", tenantID, userID)
}

func LastOrderKey(tenantID string, userID int64) string {
	return fmt.Sprintf("last_order:%s:%d", tenantID, userID)
}

const WinbackLockKey = "winback:lock"
