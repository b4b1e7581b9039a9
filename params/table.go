// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package params

// FirmwareVersion is the value the table seeds into Misc_Firmware_ver. The
// device owns that slot; it is never written to a parameter file.
const FirmwareVersion = 10

// slotDefs is the on-device layout. Order is significant: the n-th entry
// lives at byte offset 2*n. Append new slots at the end only.
var slotDefs = []SlotDef{
	{Name: "ArmState_Enable", Default: 1},
	{Name: "ArmState_Panel", Default: 1},
	{Name: "ArmState_H_Position", Default: 350},
	{Name: "ArmState_V_Position", Default: 44},
	{Name: "ArmState_Font_Size", Default: 0},
	{Name: "ArmState_H_Alignment", Default: 2},
	{Name: "BatteryVoltage_Enable", Default: 1},
	{Name: "BatteryVoltage_Panel", Default: 1},
	{Name: "BatteryVoltage_H_Position", Default: 350},
	{Name: "BatteryVoltage_V_Position", Default: 4},
	{Name: "BatteryVoltage_Font_Size", Default: 0},
	{Name: "BatteryVoltage_H_Alignment", Default: 2},
	{Name: "BatteryCurrent_Enable", Default: 1},
	{Name: "BatteryCurrent_Panel", Default: 1},
	{Name: "BatteryCurrent_H_Position", Default: 350},
	{Name: "BatteryCurrent_V_Position", Default: 14},
	{Name: "BatteryCurrent_Font_Size", Default: 0},
	{Name: "BatteryCurrent_H_Alignment", Default: 2},
	{Name: "BatteryRemaining_Enable", Default: 1},
	{Name: "BatteryRemaining_Panel", Default: 1},
	{Name: "BatteryRemaining_H_Position", Default: 350},
	{Name: "BatteryRemaining_V_Position", Default: 24},
	{Name: "BatteryRemaining_Font_Size", Default: 0},
	{Name: "BatteryRemaining_H_Alignment", Default: 2},
	{Name: "FlightMode_Enable", Default: 1},
	{Name: "FlightMode_Panel", Default: 1},
	{Name: "FlightMode_H_Position", Default: 350},
	{Name: "FlightMode_V_Position", Default: 54},
	{Name: "FlightMode_Font_Size", Default: 1},
	{Name: "FlightMode_H_Alignment", Default: 2},
	{Name: "GPSStatus_Enable", Default: 1},
	{Name: "GPSStatus_Panel", Default: 1},
	{Name: "GPSStatus_H_Position", Default: 0},
	{Name: "GPSStatus_V_Position", Default: 230},
	{Name: "GPSStatus_Font_Size", Default: 0},
	{Name: "GPSStatus_H_Alignment", Default: 0},
	{Name: "GPSHDOP_Enable", Default: 1},
	{Name: "GPSHDOP_Panel", Default: 1},
	{Name: "GPSHDOP_H_Position", Default: 70},
	{Name: "GPSHDOP_V_Position", Default: 230},
	{Name: "GPSHDOP_Font_Size", Default: 0},
	{Name: "GPSHDOP_H_Alignment", Default: 0},
	{Name: "GPSLatitude_Enable", Default: 1},
	{Name: "GPSLatitude_Panel", Default: 1},
	{Name: "GPSLatitude_H_Position", Default: 200},
	{Name: "GPSLatitude_V_Position", Default: 230},
	{Name: "GPSLatitude_Font_Size", Default: 0},
	{Name: "GPSLatitude_H_Alignment", Default: 0},
	{Name: "GPSLongitude_Enable", Default: 1},
	{Name: "GPSLongitude_Panel", Default: 1},
	{Name: "GPSLongitude_H_Position", Default: 280},
	{Name: "GPSLongitude_V_Position", Default: 230},
	{Name: "GPSLongitude_Font_Size", Default: 0},
	{Name: "GPSLongitude_H_Alignment", Default: 0},
	{Name: "GPS2Status_Enable", Default: 1},
	{Name: "GPS2Status_Panel", Default: 2},
	{Name: "GPS2Status_H_Position", Default: 0},
	{Name: "GPS2Status_V_Position", Default: 230},
	{Name: "GPS2Status_Font_Size", Default: 0},
	{Name: "GPS2Status_H_Alignment", Default: 0},
	{Name: "GPS2HDOP_Enable", Default: 1},
	{Name: "GPS2HDOP_Panel", Default: 2},
	{Name: "GPS2HDOP_H_Position", Default: 70},
	{Name: "GPS2HDOP_V_Position", Default: 230},
	{Name: "GPS2HDOP_Font_Size", Default: 0},
	{Name: "GPS2HDOP_H_Alignment", Default: 0},
	{Name: "GPS2Latitude_Enable", Default: 1},
	{Name: "GPS2Latitude_Panel", Default: 2},
	{Name: "GPS2Latitude_H_Position", Default: 200},
	{Name: "GPS2Latitude_V_Position", Default: 230},
	{Name: "GPS2Latitude_Font_Size", Default: 0},
	{Name: "GPS2Latitude_H_Alignment", Default: 0},
	{Name: "GPS2Longitude_Enable", Default: 1},
	{Name: "GPS2Longitude_Panel", Default: 2},
	{Name: "GPS2Longitude_H_Position", Default: 280},
	{Name: "GPS2Longitude_V_Position", Default: 230},
	{Name: "GPS2Longitude_Font_Size", Default: 0},
	{Name: "GPS2Longitude_H_Alignment", Default: 0},
	{Name: "Time_Enable", Default: 1},
	{Name: "Time_Panel", Default: 1},
	{Name: "Time_H_Position", Default: 350},
	{Name: "Time_V_Position", Default: 220},
	{Name: "Time_Font_Size", Default: 0},
	{Name: "Time_H_Alignment", Default: 2},
	{Name: "Altitude_Absolute_Enable", Default: 1},
	{Name: "Altitude_Absolute_Panel", Default: 2},
	{Name: "Altitude_Absolute_H_Position", Default: 5},
	{Name: "Altitude_Absolute_V_Position", Default: 10},
	{Name: "Altitude_Absolute_Font_Size", Default: 0},
	{Name: "Altitude_Absolute_H_Alignment", Default: 0},
	{Name: "Altitude_Scale_Enable", Default: 1},
	{Name: "Altitude_Scale_Panel", Default: 1},
	{Name: "Altitude_Scale_H_Position", Default: 350},
	{Name: "Altitude_Scale_Align", Default: 1},
	{Name: "Altitude_Scale_Source", Default: 0},
	{Name: "Speed_Ground_Enable", Default: 1},
	{Name: "Speed_Ground_Panel", Default: 2},
	{Name: "Speed_Ground_H_Position", Default: 5},
	{Name: "Speed_Ground_V_Position", Default: 40},
	{Name: "Speed_Ground_Font_Size", Default: 0},
	{Name: "Speed_Ground_H_Alignment", Default: 0},
	{Name: "Speed_Scale_Enable", Default: 1},
	{Name: "Speed_Scale_Panel", Default: 1},
	{Name: "Speed_Scale_H_Position", Default: 10},
	{Name: "Speed_Scale_Align", Default: 0},
	{Name: "Speed_Scale_Source", Default: 0},
	{Name: "Throttle_Enable", Default: 1},
	{Name: "Throttle_Panel", Default: 1},
	{Name: "Throttle_Scale_Enable", Default: 1},
	{Name: "Throttle_H_Position", Default: 285},
	{Name: "Throttle_V_Position", Default: 202},
	{Name: "HomeDistance_Enable", Default: 1},
	{Name: "HomeDistance_Panel", Default: 1},
	{Name: "HomeDistance_H_Position", Default: 70},
	{Name: "HomeDistance_V_Position", Default: 14},
	{Name: "HomeDistance_Font_Size", Default: 0},
	{Name: "HomeDistance_H_Alignment", Default: 0},
	{Name: "WPDistance_Enable", Default: 1},
	{Name: "WPDistance_Panel", Default: 1},
	{Name: "WPDistance_H_Position", Default: 70},
	{Name: "WPDistance_V_Position", Default: 24},
	{Name: "WPDistance_Font_Size", Default: 0},
	{Name: "WPDistance_H_Alignment", Default: 0},
	{Name: "CHWDIR_Tmode_Enable", Default: 1},
	{Name: "CHWDIR_Tmode_Panel", Default: 2},
	{Name: "CHWDIR_Tmode_V_Position", Default: 15},
	{Name: "CHWDIR_Nmode_Enable", Default: 1},
	{Name: "CHWDIR_Nmode_Panel", Default: 1},
	{Name: "CHWDIR_Nmode_H_Position", Default: 30},
	{Name: "CHWDIR_Nmode_V_Position", Default: 35},
	{Name: "CHWDIR_Nmode_Radius", Default: 20},
	{Name: "CHWDIR_Nmode_Home_Radius", Default: 25},
	{Name: "CHWDIR_Nmode_WP_Radius", Default: 25},
	{Name: "Attitude_MP_Enable", Default: 1},
	{Name: "Attitude_MP_Panel", Default: 1},
	{Name: "Attitude_MP_Mode", Default: 0},
	{Name: "Attitude_3D_Enable", Default: 1},
	{Name: "Attitude_3D_Panel", Default: 2},
	{Name: "Misc_Units_Mode", Default: 0},
	{Name: "Misc_Max_Panels", Default: 3},
	{Name: "PWM_Video_Enable", Default: 1},
	{Name: "PWM_Video_Chanel", Default: 6},
	{Name: "PWM_Video_Value", Default: 1200},
	{Name: "PWM_Panel_Enable", Default: 1},
	{Name: "PWM_Panel_Chanel", Default: 7},
	{Name: "PWM_Panel_Value", Default: 1200},
	{Name: "Alarm_H_Position", Default: 180},
	{Name: "Alarm_V_Position", Default: 25},
	{Name: "Alarm_Font_Size", Default: 1},
	{Name: "Alarm_H_Alignment", Default: 1},
	{Name: "Alarm_GPS_Status_Enable", Default: 1},
	{Name: "Alarm_Low_Batt_Enable", Default: 1},
	{Name: "Alarm_Low_Batt", Default: 20},
	{Name: "Alarm_Under_Speed_Enable", Default: 0},
	{Name: "Alarm_Under_Speed", Default: 2},
	{Name: "Alarm_Over_Speed_Enable", Default: 0},
	{Name: "Alarm_Over_Speed", Default: 100},
	{Name: "Alarm_Under_Alt_Enable", Default: 0},
	{Name: "Alarm_Under_Alt", Default: 10},
	{Name: "Alarm_Over_Alt_Enable", Default: 0},
	{Name: "Alarm_Over_Alt", Default: 1000},
	{Name: "ClimbRate_Enable", Default: 1},
	{Name: "ClimbRate_Panel", Default: 1},
	{Name: "ClimbRate_H_Position", Default: 5},
	{Name: "ClimbRate_V_Position", Default: 220},
	{Name: "ClimbRate_Font_Size", Default: 0},
	{Name: "RSSI_Enable", Default: 0},
	{Name: "RSSI_Panel", Default: 1},
	{Name: "RSSI_H_Position", Default: 70},
	{Name: "RSSI_V_Position", Default: 220},
	{Name: "RSSI_Font_Size", Default: 0},
	{Name: "RSSI_H_Alignment", Default: 0},
	{Name: "RSSI_Min", Default: 0},
	{Name: "RSSI_Max", Default: 255},
	{Name: "RSSI_Raw_Enable", Default: 0},
	{Name: "FC_Type", Default: 0},
	{Name: "Wind_Enable", Default: 1},
	{Name: "Wind_Panel", Default: 2},
	{Name: "Wind_H_Position", Default: 10},
	{Name: "Wind_V_Position", Default: 100},
	{Name: "Time_Type", Default: 0},
	{Name: "Throttle_Scale_Type", Default: 0},
	{Name: "Attitude_MP_H_Position", Default: 180},
	{Name: "Attitude_MP_V_Position", Default: 133},
	{Name: "Attitude_MP_Scale_Real", Default: 1},
	{Name: "Attitude_MP_Scale_Frac", Default: 0},
	{Name: "Attitude_3D_H_Position", Default: 180},
	{Name: "Attitude_3D_V_Position", Default: 133},
	{Name: "Attitude_3D_Scale_Real", Default: 1},
	{Name: "Attitude_3D_Scale_Frac", Default: 0},
	{Name: "Attitude_3D_Map_radius", Default: 40},
	{Name: "Misc_Start_Row", Default: 0},
	{Name: "Misc_Start_Col", Default: 0},
	{Name: "Misc_Firmware_ver", Default: FirmwareVersion},
	{Name: "Misc_Video_Mode", Default: 1},
	{Name: "Speed_Scale_V_Position", Default: 133},
	{Name: "Altitude_Scale_V_Position", Default: 133},
	{Name: "BatteryConsumed_Enable", Default: 1},
	{Name: "BatteryConsumed_Panel", Default: 1},
	{Name: "BatteryConsumed_H_Position", Default: 350},
	{Name: "BatteryConsumed_V_Position", Default: 34},
	{Name: "BatteryConsumed_Font_Size", Default: 0},
	{Name: "BatteryConsumed_H_Alignment", Default: 2},
	{Name: "TotalTrip_Enable", Default: 1},
	{Name: "TotalTrip_Panel", Default: 1},
	{Name: "TotalTrip_H_Position", Default: 350},
	{Name: "TotalTrip_V_Position", Default: 210},
	{Name: "TotalTrip_Font_Size", Default: 0},
	{Name: "TotalTrip_H_Alignment", Default: 2},
	{Name: "RSSI_Type", Default: 0},
	{Name: "Map_Enable", Default: 1},
	{Name: "Map_Panel", Default: 4},
	{Name: "Map_Radius", Default: 120},
	{Name: "Map_Font_Size", Default: 1},
	{Name: "Map_H_Alignment", Default: 0},
	{Name: "Map_V_Alignment", Default: 0},
	{Name: "Altitude_Relative_Enable", Default: 1},
	{Name: "Altitude_Relative_Panel", Default: 2},
	{Name: "Altitude_Relative_H_Position", Default: 5},
	{Name: "Altitude_Relative_V_Position", Default: 25},
	{Name: "Altitude_Relative_Font_Size", Default: 0},
	{Name: "Altitude_Relative_H_Alignment", Default: 0},
	// 0: absolute altitude, 1: relative altitude
	{Name: "Altitude_Scale_Type", Default: 1},
	{Name: "Speed_Air_Enable", Default: 1},
	{Name: "Speed_Air_Panel", Default: 2},
	{Name: "Speed_Air_H_Position", Default: 5},
	{Name: "Speed_Air_V_Position", Default: 55},
	{Name: "Speed_Air_Font_Size", Default: 0},
	{Name: "Speed_Air_H_Alignment", Default: 0},
	// 0: ground speed, 1: air speed
	{Name: "Speed_Scale_Type", Default: 0},
	// 1: positive, 0: negative
	{Name: "Misc_Start_Col_Sign", Default: 1},
	// 1:4800 2:9600 3:19200 4:38400 5:43000 6:56000 7:57600 8:115200
	{Name: "Misc_USART_BandRate", Default: 7},
}
