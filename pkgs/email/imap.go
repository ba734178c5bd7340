package email

import (
	"crypto/tls"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// IMAPClient is a single authenticated IMAP session. It is not safe for
// concurrent use; open one per operation.
type IMAPClient struct {
	config IMAPConfig
	client *imapclient.Client
}

// IMAPConfig holds IMAP configuration
type IMAPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	SSL      bool
	StartTLS bool

	// TLSConfig is used for SSL and StartTLS when set.
	TLSConfig *tls.Config
}

// NewIMAPClient creates a new IMAP client
func NewIMAPClient(config IMAPConfig) *IMAPClient {
	return &IMAPClient{
		config: config,
	}
}

// Connect establishes a connection to the IMAP server
func (c *IMAPClient) Connect() error {
	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
	opts := &imapclient.Options{TLSConfig: c.config.TLSConfig}

	var client *imapclient.Client
	var err error

	if c.config.SSL {
		client, err = imapclient.DialTLS(addr, opts)
	} else if c.config.StartTLS {
		client, err = imapclient.DialStartTLS(addr, opts)
	} else {
		client, err = imapclient.DialInsecure(addr, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server %s: %w", addr, err)
	}

	// Authenticate
	if err := client.Login(c.config.Username, c.config.Password).Wait(); err != nil {
		client.Close()
		return fmt.Errorf("IMAP authentication failed: %w", err)
	}

	c.client = client
	return nil
}

// Close logs out and closes the connection. The connection is closed even
// when LOGOUT fails.
func (c *IMAPClient) Close() error {
	if c.client == nil {
		return nil
	}
	logoutErr := c.client.Logout().Wait()
	closeErr := c.client.Close()
	c.client = nil
	if logoutErr != nil {
		return fmt.Errorf("IMAP logout failed: %w", logoutErr)
	}
	return closeErr
}

// Select opens a folder for the following commands.
func (c *IMAPClient) Select(folder string) error {
	if c.client == nil {
		return ErrNotConnected
	}
	if folder == "" {
		folder = DefaultMailbox
	}
	if _, err := c.client.Select(folder, nil).Wait(); err != nil {
		return fmt.Errorf("failed to select folder %s: %w", folder, err)
	}
	return nil
}

// Search runs a UID SEARCH in the selected folder. Results are in server
// order.
func (c *IMAPClient) Search(criteria *imap.SearchCriteria) ([]imap.UID, error) {
	if c.client == nil {
		return nil, ErrNotConnected
	}
	data, err := c.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return data.AllUIDs(), nil
}

// FetchRaw fetches the full RFC 5322 message with the given UID. Like a
// FETCH of RFC822, it sets \Seen.
func (c *IMAPClient) FetchRaw(uid imap.UID) (*RawMessage, error) {
	if c.client == nil {
		return nil, ErrNotConnected
	}

	bodySection := &imap.FetchItemBodySection{}
	fetchOptions := &imap.FetchOptions{
		UID:          true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodySection},
	}

	msgs, err := c.client.Fetch(imap.UIDSetNum(uid), fetchOptions).Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message UID %d: %w", uid, err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("message UID %d not found", uid)
	}

	buf := msgs[0]
	data := buf.FindBodySection(bodySection)
	if data == nil {
		return nil, fmt.Errorf("message UID %d returned no body", uid)
	}
	return &RawMessage{
		UID:          uint32(buf.UID),
		InternalDate: buf.InternalDate,
		Data:         data,
	}, nil
}

// MarkDeleted adds the \Deleted flag to every given UID.
func (c *IMAPClient) MarkDeleted(uids []imap.UID) error {
	if c.client == nil {
		return ErrNotConnected
	}
	if len(uids) == 0 {
		return nil
	}
	_, err := c.client.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil).Collect()
	if err != nil {
		return fmt.Errorf("failed to mark messages as deleted: %w", err)
	}
	return nil
}

// Expunge permanently removes every message flagged \Deleted.
func (c *IMAPClient) Expunge() error {
	if c.client == nil {
		return ErrNotConnected
	}
	if _, err := c.client.Expunge().Collect(); err != nil {
		return fmt.Errorf("failed to expunge messages: %w", err)
	}
	return nil
}

// IMAPDialer opens a fresh IMAPClient per call.
type IMAPDialer struct {
	Config IMAPConfig
}

// Dial connects and authenticates.
func (d IMAPDialer) Dial() (Conn, error) {
	c := NewIMAPClient(d.Config)
	if err := c.Connect(); err != nil {
		return nil, err
	}
	return c, nil
}
