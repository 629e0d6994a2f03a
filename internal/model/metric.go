package model

type MetricType string

const (
	MetricTypeSnapshot MetricType = "host_snapshot"
	MetricTypeHostInfo MetricType = "host_info"
)
