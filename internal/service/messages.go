package service

import (
	"fmt"
)

type messageKey string

const (
	msgBackupCompleted      messageKey = "backup_completed"
	msgBackupPartial        messageKey = "backup_partial"
	msgBackupFailed         messageKey = "backup_failed"
	msgNothingSelected      messageKey = "nothing_selected"
	msgListed               messageKey = "listed"
	msgNotFound             messageKey = "not_found"
	msgInvalidRequest       messageKey = "invalid_request"
	msgDownloadReady        messageKey = "download_ready"
	msgRestoreCompleted     messageKey = "restore_completed"
	msgRestoreRejected      messageKey = "restore_rejected"
	msgSafetyCopyFailed     messageKey = "safety_copy_failed"
	msgRestoreFailed        messageKey = "restore_failed"
	msgRestoreFailedNoCopy  messageKey = "restore_failed_no_copy"
	msgDeleted              messageKey = "deleted"
	msgDeleteFailed         messageKey = "delete_failed"
	msgSettingsUpdated      messageKey = "settings_updated"
	msgSettingsInvalid      messageKey = "settings_invalid"
	msgSettingsFailed       messageKey = "settings_failed"
	msgScheduleStatus       messageKey = "schedule_status"
	msgCleanupCompleted     messageKey = "cleanup_completed"
	msgError                messageKey = "error"
)

var messages = map[string]map[messageKey]string{
	"en": {
		msgBackupCompleted:     "Backup completed",
		msgBackupPartial:       "Some backups failed",
		msgBackupFailed:        "Backup failed",
		msgNothingSelected:     "Select the database, the uploads or both",
		msgListed:              "Backups listed",
		msgNotFound:            "Backup not found",
		msgInvalidRequest:      "Invalid backup request",
		msgDownloadReady:       "Download ready",
		msgRestoreCompleted:    "Restore completed",
		msgRestoreRejected:     "This backup cannot be restored",
		msgSafetyCopyFailed:    "Could not save a copy of the current data, nothing was changed",
		msgRestoreFailed:       "Restore failed, the previous data is kept at %s",
		msgRestoreFailedNoCopy: "Restore failed",
		msgDeleted:             "Backup deleted",
		msgDeleteFailed:        "Failed to delete backup",
		msgSettingsUpdated:     "Backup schedule updated",
		msgSettingsInvalid:     "Interval must be 1-168 hours and retention 1-365 days",
		msgSettingsFailed:      "Failed to save backup settings",
		msgScheduleStatus:      "Backup schedule",
		msgCleanupCompleted:    "Old backups removed",
		msgError:               "An error occurred",
	},
	"th": {
		msgBackupCompleted:     "การสำรองข้อมูลทั้งหมดสำเร็จ",
		msgBackupPartial:       "การสำรองข้อมูลบางส่วนล้มเหลว",
		msgBackupFailed:        "เกิดข้อผิดพลาดในการสร้างไฟล์สำรองข้อมูล",
		msgNothingSelected:     "กรุณาเลือกฐานข้อมูลหรือไฟล์อัปโหลดอย่างน้อยหนึ่งรายการ",
		msgListed:              "ดึงรายการไฟล์สำรองข้อมูลสำเร็จ",
		msgNotFound:            "ไม่พบไฟล์สำรองข้อมูล",
		msgInvalidRequest:      "คำขอไม่ถูกต้อง",
		msgDownloadReady:       "พร้อมดาวน์โหลด",
		msgRestoreCompleted:    "กู้คืนข้อมูลสำเร็จ",
		msgRestoreRejected:     "ไม่สามารถกู้คืนจากไฟล์สำรองข้อมูลนี้ได้",
		msgSafetyCopyFailed:    "ไม่สามารถสำรองข้อมูลปัจจุบันก่อนกู้คืนได้ ข้อมูลไม่ถูกเปลี่ยนแปลง",
		msgRestoreFailed:       "เกิดข้อผิดพลาดในการกู้คืนข้อมูล ข้อมูลเดิมถูกเก็บไว้ที่ %s",
		msgRestoreFailedNoCopy: "เกิดข้อผิดพลาดในการกู้คืนข้อมูล",
		msgDeleted:             "ลบไฟล์สำรองข้อมูลสำเร็จ",
		msgDeleteFailed:        "เกิดข้อผิดพลาดในการลบไฟล์สำรองข้อมูล",
		msgSettingsUpdated:     "บันทึกการตั้งค่าการสำรองข้อมูลสำเร็จ",
		msgSettingsInvalid:     "ช่วงเวลาต้องอยู่ระหว่าง 1-168 ชั่วโมง และระยะเวลาเก็บต้องอยู่ระหว่าง 1-365 วัน",
		msgSettingsFailed:      "เกิดข้อผิดพลาดในการบันทึกการตั้งค่า",
		msgScheduleStatus:      "กำหนดเวลาการสำรองข้อมูล",
		msgCleanupCompleted:    "ลบข้อมูลสำรองเก่าเรียบร้อยแล้ว",
		msgError:               "เกิดข้อผิดพลาด",
	},
}

// message returns the text for key in locale, falling back to English.
func message(locale string, key messageKey, args ...interface{}) string {
	table, ok := messages[locale]
	if !ok {
		table = messages["en"]
	}
	text, ok := table[key]
	if !ok {
		text = messages["en"][msgError]
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}
