package engine

// restrictedMerge assigns fields onto o from outside any method, skipping
// class machinery keys. Assignments the guard denies are skipped too; the
// return value counts them.
func (rt *Runtime) restrictedMerge(o *Object, fields []Field) int {
	failed := 0
	for _, f := range fields {
		if isRestricted(f.Key) {
			continue
		}
		if err := rt.set(o, f.Key, f.Value, nil); err != nil {
			rt.logger.Debug("restricted merge skipped member", "member", f.Key, "error", err)
			failed++
		}
	}
	return failed
}
