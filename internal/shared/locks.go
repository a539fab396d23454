package shared

// OverdueSweepLockKey builds the redis key guarding the overdue sweep
// critical section.
func OverdueSweepLockKey() string {
	return "ledger:overdue_sweep:lock"
}
