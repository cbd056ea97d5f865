package cmd

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	cmdcommon "boscoin.io/dbo/cmd/dbo/common"
	"boscoin.io/dbo/lib/document"
	"boscoin.io/dbo/lib/storage"
)

var (
	flagDocTitle   string
	flagDocBody    string
	flagDocTags    cmdcommon.ListFlags
	flagDocVersion int64 = document.AnyVersion
	flagDocCursor  string
	flagDocLimit   uint64
	flagDocReverse bool
)

var (
	docCmd = &cobra.Command{
		Use:   "doc",
		Short: "Manage documents",
		Run: func(c *cobra.Command, args []string) {
			c.Usage()
		},
	}
	docPutCmd = &cobra.Command{
		Use:   "put",
		Short: "Store a new document",
		Run:   docRun(runDocPut),
	}
	docGetCmd = &cobra.Command{
		Use:   "get <id>",
		Short: "Print a document",
		Args:  cobra.ExactArgs(1),
		Run:   docRun(runDocGet),
	}
	docEditCmd = &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title, body or tags of a document",
		Args:  cobra.ExactArgs(1),
		Run:   docRun(runDocEdit),
	}
	docRmCmd = &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a document",
		Args:  cobra.ExactArgs(1),
		Run:   docRun(runDocRm),
	}
	docLsCmd = &cobra.Command{
		Use:   "ls",
		Short: "List documents in id order",
		Run:   docRun(runDocLs),
	}
)

func init() {
	for _, c := range []*cobra.Command{docPutCmd, docEditCmd} {
		c.Flags().StringVar(&flagDocTitle, "title", flagDocTitle, "title")
		c.Flags().StringVar(&flagDocBody, "body", flagDocBody, "body")
		c.Flags().Var(&flagDocTags, "tag", "tag; can be given multiple times")
	}
	for _, c := range []*cobra.Command{docEditCmd, docRmCmd} {
		c.Flags().Int64Var(&flagDocVersion, "version", flagDocVersion, "expected version; -1 skips the check")
	}
	docLsCmd.Flags().StringVar(&flagDocCursor, "cursor", flagDocCursor, "continue after this cursor")
	docLsCmd.Flags().Uint64Var(&flagDocLimit, "limit", flagDocLimit, "maximum number of documents; 0 is unlimited")
	docLsCmd.Flags().BoolVar(&flagDocReverse, "reverse", flagDocReverse, "list in reverse order")

	docCmd.AddCommand(docPutCmd, docGetCmd, docEditCmd, docRmCmd, docLsCmd)
	rootCmd.AddCommand(docCmd)
}

func docRun(fn func(*cobra.Command, *document.Store, []string) error) func(*cobra.Command, []string) {
	return func(c *cobra.Command, args []string) {
		parseFlagsConfig(c)

		store, st, err := openStore()
		if err != nil {
			cmdcommon.PrintFlagsError(c, "--storage", err)
		}

		err = fn(c, store, args)
		if cerr := st.Close(); cerr != nil {
			log.Error("failed to close storage", "error", cerr)
		}
		if err != nil {
			cmdcommon.PrintError(c, err)
		}
	}
}

func parseDocID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.New("id must be a number")
	}
	return id, nil
}

func runDocPut(c *cobra.Command, store *document.Store, args []string) error {
	entry, err := store.Create(document.Document{
		Title: flagDocTitle,
		Body:  flagDocBody,
		Tags:  []string(flagDocTags),
	})
	if err != nil {
		return err
	}

	return printOutput(c, entry)
}

func runDocGet(c *cobra.Command, store *document.Store, args []string) error {
	id, err := parseDocID(args[0])
	if err != nil {
		return err
	}

	entry, err := store.Get(id)
	if err != nil {
		return err
	}

	return printOutput(c, entry)
}

// runDocEdit changes only the fields given by flag.
func runDocEdit(c *cobra.Command, store *document.Store, args []string) error {
	id, err := parseDocID(args[0])
	if err != nil {
		return err
	}

	flags := c.Flags()
	entry, err := store.Update(id, flagDocVersion, func(d *document.Document) error {
		if flags.Changed("title") {
			d.Title = flagDocTitle
		}
		if flags.Changed("body") {
			d.Body = flagDocBody
		}
		if flags.Changed("tag") {
			d.Tags = []string(flagDocTags)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return printOutput(c, entry)
}

func runDocRm(c *cobra.Command, store *document.Store, args []string) error {
	id, err := parseDocID(args[0])
	if err != nil {
		return err
	}

	if err := store.Remove(id, flagDocVersion); err != nil {
		return err
	}

	log.Debug("document removed", "id", id)
	return nil
}

func runDocLs(c *cobra.Command, store *document.Store, args []string) error {
	var cursor []byte
	if len(flagDocCursor) > 0 {
		cursor = []byte(flagDocCursor)
	}

	entries, err := store.List(storage.NewDefaultListOptions(flagDocReverse, cursor, flagDocLimit))
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []document.Entry{}
	}

	return printOutput(c, entries)
}
