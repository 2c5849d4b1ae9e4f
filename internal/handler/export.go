package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/stoolpool-api/internal/handler/dto"
)

var exportHeaders = []string{
	"Date", "Score", "Result", "Color", "Stool Color", "Consistency", "Smell",
	"Pain Before", "Pain During", "Pain After", "Float/Sink", "Notes", "Created At",
}

// exportRow собирает строку выгрузки. Неизвестная дата и пропущенные ответы дают пустые ячейки.
func exportRow(e dto.ExportEntryDTO) []string {
	date := ""
	if e.Date != nil {
		date = e.Date.UTC().Format(time.RFC3339)
	}
	painBefore, painDuring, painAfter := "", "", ""
	if p := e.Answers.Pain; p != nil {
		painBefore = strconv.Itoa(p.Before)
		painDuring = strconv.Itoa(p.During)
		painAfter = strconv.Itoa(p.After)
	}
	floatSink := ""
	if e.Answers.FloatSink != nil {
		floatSink = e.Answers.FloatSink.String()
	}

	return []string{
		date,
		strconv.Itoa(e.Score),
		sanitizeForExcel(e.Result),
		e.Color,
		sanitizeForExcel(e.Answers.Color),
		sanitizeForExcel(e.Answers.Consistency),
		sanitizeForExcel(e.Answers.Smell),
		painBefore,
		painDuring,
		painAfter,
		sanitizeForExcel(floatSink),
		sanitizeForExcel(e.Answers.Notes),
		e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// exportCSV выгружает историю в CSV с правильным экранированием спецсимволов
func exportCSV(c *gin.Context, export *dto.ExportDataDTO, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))
	c.Status(http.StatusOK)

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeaders)
	for _, e := range export.HealthEntries {
		writer.Write(exportRow(e))
	}
}

// exportXLSX выгружает профиль и историю в Excel с использованием StreamWriter
func exportXLSX(c *gin.Context, export *dto.ExportDataDTO, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "History"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[UserHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := make([]interface{}, len(exportHeaders))
	for i, h := range exportHeaders {
		headers[i] = h
	}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[UserHandler] Ошибка записи заголовков: %v", err)
	}

	for i, e := range export.HealthEntries {
		rowNum := i + 2 // 1 - заголовки
		values := exportRow(e)
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		row[1] = e.Score
		if err := sw.SetRow(fmt.Sprintf("A%d", rowNum), row); err != nil {
			log.Printf("[UserHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[UserHandler] Ошибка при Flush: %v", err)
	}

	profile := "Profile"
	if _, err := f.NewSheet(profile); err == nil {
		f.SetCellValue(profile, "A1", "Username")
		f.SetCellValue(profile, "B1", sanitizeForExcel(export.User.Username))
		f.SetCellValue(profile, "A2", "Email")
		f.SetCellValue(profile, "B2", sanitizeForExcel(export.User.Email))
		f.SetCellValue(profile, "A3", "Exported At")
		f.SetCellValue(profile, "B3", export.ExportDate.Format(time.RFC3339))
		f.SetCellValue(profile, "A4", "Total Entries")
		f.SetCellValue(profile, "B4", export.TotalEntries)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[UserHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
