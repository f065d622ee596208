// Package exporter writes extracted fuel datasets to disk.
//
// Tables turn each record set into a header plus typed rows, sorted the way
// downstream loaders expect: dated sets by (date, site, product), dateless
// settings by (site, product, tank). Empty sets produce no table.
//
// CSVWriter writes one table per file with an optional UTF-8 BOM for Excel.
// WorkbookWriter writes all tables as sheets of one XLSX workbook.
// FuelExporter runs the configured writers concurrently.
//
// Example usage:
//
//	exp := exporter.NewFuelExporter(exporter.Options{
//		Dir:     "out",
//		Formats: []string{"csv", "xlsx"},
//		BOM:     true,
//	}, logger)
//	files, err := exp.Export(ctx, dataset)
package exporter
