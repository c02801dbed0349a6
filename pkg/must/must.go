package must

// Must panics if err is not nil. It is meant for initialization-time
// calls that cannot fail at runtime, such as flag registration.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}
