package transactor

// Credentials is an opaque key/value bag holding the merchant's gateway
// credentials, scoped to the transactor that created it. The transactor name
// is a back-reference for contextual validation, not ownership.
type Credentials struct {
	transactorName string
	values         map[string]string
}

// NewCredentials builds a credentials bag scoped to the named transactor.
func NewCredentials(transactorName string) *Credentials {
	return &Credentials{
		transactorName: transactorName,
		values:         make(map[string]string),
	}
}

// TransactorName returns the name of the transactor this bag belongs to.
func (c *Credentials) TransactorName() string { return c.transactorName }

// Get returns the value for key, with ok reporting whether it was ever set.
func (c *Credentials) Get(key string) (value string, ok bool) {
	value, ok = c.values[key]
	return value, ok
}

// Set stores a credential value under key.
func (c *Credentials) Set(key, value string) {
	c.values[key] = value
}
