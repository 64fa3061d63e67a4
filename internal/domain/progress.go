package domain

// ProgressFunc reports download progress while walking every page of a list.
// Called once per page: (20, 126), (40, 126), ...
type ProgressFunc func(loaded, total int)
