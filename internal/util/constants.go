package util

const (
	PinningPinata = "pinata"
	PinningMinio  = "minio"
	PinningOSS    = "oss"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)
