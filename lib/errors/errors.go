package errors

// pre-defined `Errors`
var (
	ObjectNotFound         = NewError(100, "object not found; it may have been deleted concurrently")
	StaleObject            = NewError(101, "stale object; version does not match the stored row")
	NoActiveTransaction    = NewError(102, "no active transaction")
	InvalidState           = NewError(103, "invalid object state")
	ObjectAlreadyExists    = NewError(104, "object already exists")
	NullPointer            = NewError(105, "null pointer dereference")
	MappingNotFound        = NewError(106, "class is not mapped")
	MappingAlreadyExists   = NewError(107, "class is already mapped")
	TransactionAlreadyDone = NewError(108, "transaction already committed or rolled back")
	SessionClosed          = NewError(109, "session is closed")
	InvalidID              = NewError(110, "invalid object id")
	BadRequestParameter    = NewError(111, "bad request parameter")

	StorageRecordDoesNotExist  = NewError(200, "record does not exist in storage")
	StorageRecordAlreadyExists = NewError(201, "record already exists in storage")
	StorageCoreError           = NewError(202, "storage error")
	StorageTransactionOpened   = NewError(203, "storage transaction is already opened")
	StorageTransactionNotOpen  = NewError(204, "storage is not in transaction")
	StorageInvalidConfig       = NewError(205, "invalid storage config")

	CacheAdapterNotFound = NewError(300, "cache adapter not found")

	NotImplemented = NewError(900, "not implemented")
)
