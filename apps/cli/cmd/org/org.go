package org

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-org-admin/apps/cli/cmd/cmdutil"
	orgsservice "github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/service"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/persistence"
)

// Command groups organization helpers.
func Command(opts *cmdutil.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Organization utilities (create/get/seed/docs)",
	}

	cmd.AddCommand(createCommand(opts))
	cmd.AddCommand(getCommand(opts))
	cmd.AddCommand(seedCommand(opts))
	cmd.AddCommand(docsCommand(opts))
	return cmd
}

func createCommand(opts *cmdutil.Options) *cobra.Command {
	var name, email, password string

	c := &cobra.Command{
		Use:   "create",
		Short: "Register an organization, provision its collection and create its admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, e, err := cmdutil.Open(context.Background(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			org, err := e.Orgs.Create(ctx, orgsservice.CreateInput{OrganizationName: name, Email: email, Password: password})
			if err != nil {
				return fmt.Errorf("create organization: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Organization created. %s (%s) | collection: %s | admin: %s (%s)\n",
				org.Name, org.ID, org.CollectionName, org.Admin.Email, org.Admin.ID)
			return nil
		},
	}

	c.Flags().StringVar(&name, "name", "", "Organization name")
	c.Flags().StringVar(&email, "email", "", "Admin email")
	c.Flags().StringVar(&password, "password", "", "Admin password")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}

func getCommand(opts *cmdutil.Options) *cobra.Command {
	var name string

	c := &cobra.Command{
		Use:   "get",
		Short: "Show an organization and its admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, e, err := cmdutil.Open(context.Background(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			org, err := e.Orgs.Lookup(ctx, name)
			if err != nil {
				return fmt.Errorf("lookup organization: %w", err)
			}

			out := map[string]any{
				"id":             org.ID,
				"name":           org.Name,
				"collectionName": org.CollectionName,
				"createdAt":      org.CreatedAt,
				"updatedAt":      org.UpdatedAt,
				"adminUser":      nil,
			}
			if org.Admin != nil {
				out["adminUser"] = map[string]any{"id": org.Admin.ID, "email": org.Admin.Email, "role": org.Admin.Role}
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	c.Flags().StringVar(&name, "name", "", "Organization name")
	_ = c.MarkFlagRequired("name")
	return c
}

func seedCommand(opts *cmdutil.Options) *cobra.Command {
	var name, file string

	c := &cobra.Command{
		Use:   "seed",
		Short: "Insert documents from a JSON array file into an organization's collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open seed file: %w", err)
				}
				defer f.Close()
				r = f
			}

			docs, err := ParseDocuments(r)
			if err != nil {
				return err
			}

			ctx, e, err := cmdutil.Open(context.Background(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			org, err := e.Orgs.Lookup(ctx, name)
			if err != nil {
				return fmt.Errorf("lookup organization: %w", err)
			}

			saved, err := e.Collections.Insert(ctx, org.CollectionName, docs...)
			if err != nil {
				return fmt.Errorf("seed collection %s: %w", org.CollectionName, err)
			}
			e.Logger.Info("collection seeded", zap.String("collection", org.CollectionName), zap.Int("documents", len(saved)))
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d documents into %s\n", len(saved), org.CollectionName)
			return nil
		},
	}

	c.Flags().StringVar(&name, "name", "", "Organization name")
	c.Flags().StringVarP(&file, "file", "f", "-", "JSON file holding an array of documents (- for stdin)")
	_ = c.MarkFlagRequired("name")
	return c
}

func docsCommand(opts *cmdutil.Options) *cobra.Command {
	var name string

	c := &cobra.Command{
		Use:   "docs",
		Short: "Print the documents of an organization's collection as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, e, err := cmdutil.Open(context.Background(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.Close()

			org, err := e.Orgs.Lookup(ctx, name)
			if err != nil {
				return fmt.Errorf("lookup organization: %w", err)
			}
			docs, err := e.Collections.List(ctx, org.CollectionName)
			if err != nil {
				return fmt.Errorf("list collection %s: %w", org.CollectionName, err)
			}
			return writeJSON(cmd.OutOrStdout(), FormatDocuments(docs))
		},
	}

	c.Flags().StringVar(&name, "name", "", "Organization name")
	_ = c.MarkFlagRequired("name")
	return c
}

// ParseDocuments reads a JSON array of objects. A string "id" member becomes the document id
// and is removed from the stored fields; documents without one get a generated id on insert.
func ParseDocuments(r io.Reader) ([]persistence.Document, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode documents: expected a JSON array of objects: %w", err)
	}

	docs := make([]persistence.Document, 0, len(raw))
	for i, fields := range raw {
		if fields == nil {
			return nil, fmt.Errorf("document %d is null", i)
		}
		var doc persistence.Document
		if id, ok := fields["id"]; ok {
			s, isString := id.(string)
			if !isString || s == "" {
				return nil, fmt.Errorf("document %d: id must be a non-empty string", i)
			}
			doc.ID = s
			delete(fields, "id")
		}
		doc.Fields = fields
		docs = append(docs, doc)
	}
	return docs, nil
}

// FormatDocuments flattens documents back into the shape ParseDocuments accepts.
func FormatDocuments(docs []persistence.Document) []map[string]any {
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		item := make(map[string]any, len(doc.Fields)+1)
		for k, v := range doc.Fields {
			item[k] = v
		}
		item["id"] = doc.ID
		out = append(out, item)
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
