package domain

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

const (
	ReferralStatusPending   = "PENDING"
	ReferralStatusQualified = "QUALIFIED"
	ReferralStatusRewarded  = "REWARDED"
	ReferralStatusExpired   = "EXPIRED"
)

const (
	RewardTypePercentage = "PERCENTAGE"
	RewardTypeFlat       = "FLAT"
)

const (
	OrderStatusPending   = "PENDING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// Permission actions checked against the policy table.
const (
	PermReferralRead         = "referral:read"
	PermReferralManageConfig = "referral:manageConfig"
	PermReferralExpire       = "referral:expire"
	PermOrderComplete        = "order:complete"
)
