package mongo

import "errors"

var (
	ErrEmptyConnectionURL     = errors.New("mongo: connection URL is empty, set MONGODB_URL")
	ErrFailedToConnectToMongo = errors.New("mongo: cannot reach server")
	ErrHealthcheckFailed      = errors.New("mongo: healthcheck failed")
	ErrFailedToCreateIndexes  = errors.New("mongo: index creation failed")
	ErrQueryFailed            = errors.New("mongo: query failed")
)
